package snapshot

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/kjk/flatstore/docstore"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/minioutil"
	"github.com/kjk/flatstore/u"
)

// SaveFile writes a snapshot to path. The file is compressed based
// on extension (.gz, .zst, .zstd, .br) and written atomically.
func SaveFile(db *docstore.DB, path string) (int, error) {
	timeStart := time.Now()
	w, err := u.CreateFileMaybeCompressed(path)
	if err != nil {
		return 0, err
	}
	n, err := Write(db, w)
	if err != nil {
		w.Cancel()
		return 0, err
	}
	if err = w.Close(); err != nil {
		return 0, err
	}
	size := u.FileSize(path)
	log.Logf("snapshot: saved %d collections to '%s' (%s) in %s\n", n, path, u.FormatSize(size), time.Since(timeStart))
	log.EventWithDuration("snapshot.save", time.Since(timeStart), "collections", n, "size", size)
	return n, nil
}

// RestoreFile restores a snapshot written with SaveFile
func RestoreFile(db *docstore.DB, path string) (int, error) {
	timeStart := time.Now()
	r, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := Restore(db, r)
	if err != nil {
		return n, err
	}
	log.Logf("snapshot: restored %d collections from '%s' in %s\n", n, path, time.Since(timeStart))
	log.EventWithDuration("snapshot.restore", time.Since(timeStart), "collections", n)
	return n, nil
}

// temp file with the same name as remotePath so that it has
// the same extension, which decides decompression
func tempPathFor(remotePath string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "flatstore-snapshot-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		os.RemoveAll(dir)
	}
	return filepath.Join(dir, path.Base(remotePath)), cleanup, nil
}

// Encode returns a snapshot of all collections compressed with codec,
// along with the number of collections in it
func Encode(db *docstore.DB, codec u.Codec) ([]byte, int, error) {
	var buf bytes.Buffer
	w, err := u.NewCompressWriter(&buf, codec)
	if err != nil {
		return nil, 0, err
	}
	n, err := Write(db, w)
	if err != nil {
		return nil, 0, err
	}
	if err = w.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), n, nil
}

// Upload uploads a snapshot to remotePath. It's compressed based on
// extension of remotePath, like in SaveFile.
// Collections are loaded in memory anyway so we don't need a temp file.
func Upload(c *minioutil.Client, db *docstore.DB, remotePath string) (int, error) {
	timeStart := time.Now()
	d, n, err := Encode(db, u.CodecFromFileName(remotePath))
	if err != nil {
		return 0, err
	}
	if _, err = c.UploadData(remotePath, d); err != nil {
		return 0, err
	}
	log.Logf("snapshot: uploaded %d collections to '%s' (%s) in %s\n", n, remotePath, u.FormatSize(int64(len(d))), time.Since(timeStart))
	log.EventWithDuration("snapshot.upload", time.Since(timeStart), "path", remotePath, "bucket", c.Bucket, "size", len(d))
	return n, nil
}

// Download downloads a snapshot from remotePath and restores it
func Download(c *minioutil.Client, db *docstore.DB, remotePath string) (int, error) {
	localPath, cleanup, err := tempPathFor(remotePath)
	if err != nil {
		return 0, err
	}
	defer cleanup()
	if err = c.DownloadFileAtomically(localPath, remotePath); err != nil {
		return 0, err
	}
	return RestoreFile(db, localPath)
}
