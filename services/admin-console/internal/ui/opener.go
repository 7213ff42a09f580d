package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// BrowserOpener hands URLs to the platform's default browser.
type BrowserOpener struct {
	// Fallback receives the URL when no browser could be launched.
	Fallback io.Writer
}

func (b BrowserOpener) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		if b.Fallback != nil {
			fmt.Fprintf(b.Fallback, "open this link: %s\n", url)
			return nil
		}
		return fmt.Errorf("open %s: %w", url, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
