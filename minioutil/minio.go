package minioutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/kjk/flatstore/atomicfile"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// use http instead of https, for local minio servers
	Insecure     bool
	RequestTrace io.Writer
}

// ConfigFromEnv builds Config from S3_* values, as parsed from a .env file
//
//	S3_ACCESS=...
//	S3_SECRET=...
//	S3_BUCKET=backups
//	S3_ENDPOINT=s3.us-west-1.amazonaws.com
//	S3_REGION=us-west-1
//	S3_INSECURE=false
func ConfigFromEnv(m map[string]string) *Config {
	return &Config{
		Access:   m["S3_ACCESS"],
		Secret:   m["S3_SECRET"],
		Bucket:   m["S3_BUCKET"],
		Endpoint: m["S3_ENDPOINT"],
		Region:   m["S3_REGION"],
		Insecure: m["S3_INSECURE"] == "true",
	}
}

type Client struct {
	Client *minio.Client
	config *Config
	Bucket string
}

func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide all fields in config")
	}

	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx(), c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}

	return &Client{
		Client: mc,
		config: c,
		Bucket: c.Bucket,
	}, nil
}

func (c *Client) Exists(remotePath string) bool {
	_, err := c.Client.StatObject(ctx(), c.Bucket, remotePath, minio.StatObjectOptions{})
	return err == nil
}

// DownloadFileAtomically downloads remotePath to dstPath. dstPath is
// only replaced if the whole object was downloaded.
func (c *Client) DownloadFileAtomically(dstPath string, remotePath string) error {
	obj, err := c.Client.GetObject(ctx(), c.Bucket, remotePath, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	// ensure there's a dir for destination file
	err = os.MkdirAll(filepath.Dir(dstPath), 0755)
	if err != nil {
		return err
	}

	f, err := atomicfile.New(dstPath)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	_, err = io.Copy(f, obj)
	if err != nil {
		return err
	}
	return f.Close()
}

func contentTypeFor(remotePath string) string {
	// snapshots are compressed by extension so don't let
	// mime guess "application/gzip" etc.
	ext := strings.ToLower(filepath.Ext(remotePath))
	switch ext {
	case ".gz", ".zst", ".zstd", ".br":
		return "application/octet-stream"
	}
	return mime.TypeByExtension(ext)
}

// UploadData uploads data as remotePath, replacing it if it exists
func (c *Client) UploadData(remotePath string, data []byte) (minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentTypeFor(remotePath),
	}
	r := bytes.NewReader(data)
	return c.Client.PutObject(ctx(), c.Bucket, remotePath, r, int64(len(data)), opts)
}

// ListObjects returns all objects with a given prefix
func (c *Client) ListObjects(prefix string) ([]minio.ObjectInfo, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	var res []minio.ObjectInfo
	for oi := range c.Client.ListObjects(ctx(), c.Bucket, opts) {
		if oi.Err != nil {
			return nil, oi.Err
		}
		res = append(res, oi)
	}
	return res, nil
}

func (c *Client) Remove(remotePath string) error {
	opts := minio.RemoveObjectOptions{}
	return c.Client.RemoveObject(ctx(), c.Bucket, remotePath, opts)
}

func ctx() context.Context {
	return context.Background()
}
