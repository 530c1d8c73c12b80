package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/food-kart/internal/domain/catalog"
)

// readFiles parses all inputs concurrently. The result keeps the order of
// paths so imports stay deterministic.
func readFiles(ctx context.Context, lg *zap.Logger, paths []string) ([][]catalog.Fields, error) {
	out := make([][]catalog.Fields, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			records, err := readFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			lg.Info("File parsed", zap.String("file", path), zap.Int("records", len(records)))
			out[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// readFile reads a JSON array (.json) or one product per line (.jsonl,
// optionally gzip-compressed).
func readFile(ctx context.Context, path string) ([]catalog.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
		path = strings.TrimSuffix(path, ".gz")
	}

	if strings.HasSuffix(path, ".jsonl") {
		return readLines(ctx, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return readArray(data)
}

func readArray(data []byte) ([]catalog.Fields, error) {
	var out []catalog.Fields
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return errors.Wrapf(err, "record %d", len(out)+1)
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode array")
	}
	return out, nil
}

func readLines(ctx context.Context, r io.Reader) ([]catalog.Fields, error) {
	var (
		out  []catalog.Fields
		line int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		rec, err := decodeRecord(b)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return out, nil
}

// decodeRecord maps one product object to form fields. Numbers are kept as
// their literal text, so a code written as 10001 reads the same as "10001".
func decodeRecord(data []byte) (catalog.Fields, error) {
	var f catalog.Fields
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "name":
			dst = &f.Name
		case "code":
			dst = &f.Code
		case "price":
			dst = &f.Price
		case "category":
			dst = &f.Category
		case "ingredients":
			dst = &f.Ingredients
		case "imageUrl":
			dst = &f.ImageURL
		default:
			return d.Skip()
		}
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return err
			}
			*dst = s
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err
			}
			*dst = n.String()
		case jx.Null:
			return d.Null()
		default:
			return errors.Errorf("field %q: unexpected %s", key, d.Next())
		}
		return nil
	})
	if err != nil {
		return catalog.Fields{}, errors.Wrap(err, "decode product")
	}
	return f, nil
}
