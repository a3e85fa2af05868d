package iagon

import "time"

// Visibility of a stored file. Private files are only visible to the
// uploading wallet; public files are listable by anyone.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// File describes a stored file as reported by the gateway.
// Fields are normalized from the API response — callers never see raw
// gateway JSON.
type File struct {
	ID          string
	Name        string
	Ext         string
	Hash        string
	ParentDirID string
	WalletID    string
	Size        int64 // native (pre-encryption) size in bytes
	SizeStored  int64 // encrypted size on the network, 0 if not reported
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Directory describes a directory entry as reported by the gateway.
type Directory struct {
	ID          string
	Name        string
	ParentDirID string
	WalletID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Listing holds the children of a directory: files and subdirectories.
// Both slices are non-nil; an empty directory yields empty slices.
type Listing struct {
	Files       []File
	Directories []Directory
}

// UploadRequest describes a single file upload. Name and Data are required;
// the zero values of the remaining fields select the gateway defaults
// (private visibility, root directory, gateway-chosen region).
type UploadRequest struct {
	Name       string
	Data       []byte
	Password   string // encryption password; must match on download
	Visibility string // VisibilityPrivate (default) or VisibilityPublic
	DirID      string // parent directory ID, "" for root
	RegionID   string // storage region routing hint, "" for default
}

// wire types mirror the gateway JSON exactly. Unexported — callers get the
// normalized File/Directory/Listing types.

type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type fileIDData struct {
	ID string `json:"id"`
}

type createFileResponse struct {
	successEnvelope
	Data fileIDData `json:"data"`
}

type fileInfoResponse struct {
	ID          string    `json:"_id"`
	WalletID    string    `json:"wallet_id"`
	ParentDirID string    `json:"parent_directory_id"`
	Hash        string    `json:"hash"`
	Name        string    `json:"name"`
	Ext         string    `json:"ext"`
	SizeNative  int64     `json:"file_size_byte_native"`
	SizeStored  int64     `json:"file_size_byte_encrypted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type directoryInfoResponse struct {
	ID          string    `json:"_id"`
	Name        string    `json:"directory_name"`
	ParentDirID string    `json:"parent_directory_id"`
	WalletID    string    `json:"wallet_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createDirectoryResponse struct {
	successEnvelope
	Data directoryInfoResponse `json:"data"`
}

type listData struct {
	Files       []fileInfoResponse      `json:"files"`
	Directories []directoryInfoResponse `json:"directories"`
}

type listResponse struct {
	successEnvelope
	Data listData `json:"data"`
}

func (f *fileInfoResponse) toFile() File {
	return File{
		ID:          f.ID,
		Name:        f.Name,
		Ext:         f.Ext,
		Hash:        f.Hash,
		ParentDirID: f.ParentDirID,
		WalletID:    f.WalletID,
		Size:        f.SizeNative,
		SizeStored:  f.SizeStored,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (d *directoryInfoResponse) toDirectory() Directory {
	return Directory{
		ID:          d.ID,
		Name:        d.Name,
		ParentDirID: d.ParentDirID,
		WalletID:    d.WalletID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
