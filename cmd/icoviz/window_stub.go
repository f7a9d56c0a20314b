//go:build !glfw

package main

import (
	"errors"
	"log/slog"

	"github.com/taigrr/icoviz/pkg/app"
)

var errNoWindow = errors.New("built without desktop window support, rebuild with -tags glfw")

func runWindow(options, app.Controls, *slog.Logger) error {
	return errNoWindow
}
