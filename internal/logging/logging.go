// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrUnknownFormat = errors.New("unknown log format")

// Setup sets the level, formatter and output of the standard logger.
// format is "text" (the default when empty) or "json".
func Setup(level, format string, w io.Writer) error {
	lvl := logrus.WarnLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		lvl = parsed
	}

	var formatter logrus.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		formatter = &logrus.TextFormatter{DisableTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	logrus.SetLevel(lvl)
	logrus.SetFormatter(formatter)
	if w != nil {
		logrus.SetOutput(w)
	}
	return nil
}
