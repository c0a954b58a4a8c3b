package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
)

const ftpTimeout = 30 * time.Second

// FTP retrieves the snapshot from a meter-gateway FTP drop. Transient dial
// and transfer failures are retried with exponential backoff; login failures
// and missing files are permanent.
type FTP struct {
	Addr     string // host:port
	User     string
	Password string
	Path     string
}

func NewFTP(addr, user, password, path string) *FTP {
	if user == "" {
		user = "anonymous"
		password = "anonymous"
	}
	return &FTP{Addr: addr, User: user, Password: password, Path: path}
}

func (f *FTP) Open() (io.ReadCloser, error) {
	var data []byte
	operation := func() error {
		conn, err := ftp.Dial(f.Addr, ftp.DialWithTimeout(ftpTimeout))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		defer conn.Quit()

		if err := conn.Login(f.User, f.Password); err != nil {
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}

		resp, err := conn.Retr(f.Path)
		if err != nil {
			if isFileUnavailable(err) {
				return backoff.Permanent(fmt.Errorf("ftp retr %s: %w", f.Path, fs.ErrNotExist))
			}
			return fmt.Errorf("ftp retr %s: %w", f.Path, err)
		}
		defer resp.Close()

		data, err = io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *FTP) String() string {
	path := f.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ftp://" + f.Addr + path
}

func isFileUnavailable(err error) bool {
	var proto *textproto.Error
	return errors.As(err, &proto) && proto.Code == ftp.StatusFileUnavailable
}
