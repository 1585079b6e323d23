// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"context"
	"path"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// node is a file or directory of the volume. The root node and every
// looked-up child share the same type; the kind is carried by the
// inode's stable mode.
type node struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeSetattrer = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeCreater = (*node)(nil)
var _ gofuse.NodeMkdirer = (*node)(nil)
var _ gofuse.NodeUnlinker = (*node)(nil)
var _ gofuse.NodeRmdirer = (*node)(nil)
var _ gofuse.NodeRenamer = (*node)(nil)
var _ gofuse.NodeStatfser = (*node)(nil)

// volumePath returns the node's absolute path in the volume.
func (n *node) volumePath() string {
	return "/" + n.Path(nil)
}

func (n *node) childPath(name string) string {
	return path.Join(n.volumePath(), name)
}

func (n *node) volume() *cutefs.Volume {
	return n.options.Volume
}

// newChild creates an inode for a child described by info and fills
// out with its attributes.
func (n *node) newChild(ctx context.Context, info cutefs.FileInfo, out *fuse.EntryOut) *gofuse.Inode {
	n.fillAttr(info, &out.Attr)
	mode := uint32(syscall.S_IFREG)
	if info.IsDir() {
		mode = syscall.S_IFDIR
	}
	return n.NewInode(ctx, &node{options: n.options}, gofuse.StableAttr{Mode: mode})
}

func (n *node) fillAttr(info cutefs.FileInfo, out *fuse.Attr) {
	if info.IsDir() {
		out.Mode = syscall.S_IFDIR | 0o755
		out.Nlink = 2
	} else {
		out.Mode = syscall.S_IFREG | 0o644
		out.Nlink = 1
	}
	out.Size = uint64(info.Size)
	out.Blocks = (out.Size + 511) / 512
	if stats, err := n.volume().Statfs(); err == nil {
		out.Blksize = uint32(stats.BlockSize)
	}
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	info, err := n.volume().Stat(n.childPath(name))
	if err != nil {
		return nil, lookupErrno(err)
	}
	return n.newChild(ctx, info, out), 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	var info cutefs.FileInfo
	var err error
	if handle, ok := f.(*fileHandle); ok {
		info, err = n.volume().Fstat(handle.handle)
	} else {
		info, err = n.volume().Stat(n.volumePath())
	}
	if err != nil {
		return Errno(err)
	}
	n.fillAttr(info, &out.Attr)
	return 0
}

// Setattr accepts mode, owner, and time changes without storing them.
// A size change is honored only when it truncates to zero or leaves
// the size as it is.
func (n *node) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	volumePath := n.volumePath()
	info, err := n.volume().Stat(volumePath)
	if err != nil {
		return Errno(err)
	}

	if size, ok := in.GetSize(); ok && int64(size) != info.Size {
		if info.IsDir() {
			return syscall.EISDIR
		}
		if size != 0 {
			return syscall.ENOTSUP
		}
		handle, err := n.volume().Open(volumePath, cutefs.WriteOnly|cutefs.Truncate)
		if err != nil {
			return Errno(err)
		}
		if err := handle.Close(); err != nil {
			return Errno(err)
		}
		info.Size = 0
	}

	n.fillAttr(info, &out.Attr)
	return 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	handle, err := n.volume().Open(n.volumePath(), cutefs.Directory)
	if err != nil {
		return nil, Errno(err)
	}
	stream := &dirStream{handle: handle, logger: n.options.Logger}
	stream.advance()
	return stream, 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	handle, err := n.volume().Open(n.volumePath(), engineFlags(flags))
	if err != nil {
		return nil, 0, Errno(err)
	}
	return &fileHandle{handle: handle, options: n.options}, 0, 0
}

func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	childPath := n.childPath(name)
	handle, err := n.volume().Open(childPath, engineFlags(flags)|cutefs.Create)
	if err != nil {
		return nil, nil, 0, Errno(err)
	}
	info, err := n.volume().Fstat(handle)
	if err != nil {
		handle.Close()
		return nil, nil, 0, Errno(err)
	}
	return n.newChild(ctx, info, out), &fileHandle{handle: handle, options: n.options}, 0, 0
}

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := n.childPath(name)
	if err := n.volume().Mkdir(childPath); err != nil {
		return nil, Errno(err)
	}
	info, err := n.volume().Stat(childPath)
	if err != nil {
		return nil, Errno(err)
	}
	return n.newChild(ctx, info, out), 0
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return n.remove(name, false)
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return n.remove(name, true)
}

// remove unlinks a child after checking it has the kind the system
// call expects.
func (n *node) remove(name string, directory bool) syscall.Errno {
	childPath := n.childPath(name)
	info, err := n.volume().Stat(childPath)
	if err != nil {
		return lookupErrno(err)
	}
	switch {
	case directory && !info.IsDir():
		return syscall.ENOTDIR
	case !directory && info.IsDir():
		return syscall.EISDIR
	}
	return Errno(n.volume().Unlink(childPath))
}

// Rename supports plain renames only: RENAME_NOREPLACE and
// RENAME_EXCHANGE are rejected.
func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if flags != 0 {
		return syscall.EINVAL
	}
	destination := path.Join("/"+newParent.EmbeddedInode().Path(nil), newName)
	return Errno(n.volume().Rename(n.childPath(name), destination))
}

func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	stats, err := n.volume().Statfs()
	if err != nil {
		return Errno(err)
	}
	out.Bsize = uint32(stats.BlockSize)
	out.Frsize = uint32(stats.BlockSize)
	out.Blocks = uint64(stats.BlockCount)
	out.Bfree = uint64(stats.FreeBlocks)
	out.Bavail = uint64(stats.FreeBlocks)
	out.NameLen = cutefs.MaxNameLength
	return 0
}

// engineFlags translates open(2) flags. Flags with no cutefs meaning
// are dropped.
func engineFlags(flags uint32) cutefs.Flag {
	var result cutefs.Flag
	switch flags & syscall.O_ACCMODE {
	case syscall.O_WRONLY:
		result = cutefs.WriteOnly
	case syscall.O_RDWR:
		result = cutefs.ReadWrite
	}
	if flags&syscall.O_TRUNC != 0 {
		result |= cutefs.Truncate
	}
	if flags&syscall.O_APPEND != 0 {
		result |= cutefs.Append
	}
	if flags&syscall.O_EXCL != 0 {
		result |= cutefs.Exclusive
	}
	return result
}
