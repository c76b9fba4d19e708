package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"montage/internal/renderjob"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusText(status renderjob.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	var color string
	switch status {
	case renderjob.StatusCompleted:
		color = ansiGreen
	case renderjob.StatusFailed:
		color = ansiRed
	case renderjob.StatusCancelled:
		color = ansiYellow
	case renderjob.StatusProcessing:
		color = ansiBlue
	default:
		return string(status)
	}
	return color + string(status) + ansiReset
}
