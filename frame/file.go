// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package frame

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// NextPath returns the path of the next file in an auto numbered sequence
// in dir, of the form <prefix><n>.<ext>.
//
// Only files that match the form are considered, and n is one more than the
// largest existing number, or 1 if there are none. The dir is created if it
// does not exist.
func NextPath(dir, prefix, ext string) (string, error) {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `(\d+)\.` + regexp.QuoteMeta(ext) + "$")
	ee, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return "", err
	}
	last := 0
	for _, e := range ee {
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > last {
			last = n
		}
	}
	return filepath.Join(dir, fmt.Sprintf("%s%d.%s", prefix, last+1, ext)), nil
}

// Encode writes the image to w as the named encoding, png or jpeg.
func Encode(w io.Writer, img image.Image, encoding string) error {
	switch encoding {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	}
	return fmt.Errorf("unsupported encoding: %s (must be png or jpeg)", encoding)
}

// Save writes the image to the named file, encoded according to the file
// extension.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = Encode(f, img, ext)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}
