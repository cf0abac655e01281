package main

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hupe1980/kmeanslab"
	"github.com/hupe1980/kmeanslab/internal/config"
)

// newLogger builds the process logger. With a filename set, output goes to a
// size-rotated file instead of stderr.
func newLogger(c config.Log) (*kmeanslab.Logger, func() error, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	if c.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   c.Filename,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   c.Compress,
		}
		w, closer = rotator, rotator.Close
	}

	return kmeanslab.NewWriterLogger(w, level, c.Format == "json"), closer, nil
}
