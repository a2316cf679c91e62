package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the launcher that opens authURL on goos.
func browserCommand(goos, authURL string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{authURL}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{authURL}, nil
	case "windows":
		// cmd /c start splits the URL on '&', which every authorize URL contains.
		return "rundll32", []string{"url.dll,FileProtocolHandler", authURL}, nil
	default:
		return "", nil, fmt.Errorf("%w: cannot open a browser on %s", ErrUnsupportedPlatform, goos)
	}
}

// OpenBrowser starts the system URL handler for authURL and returns without waiting for it.
func OpenBrowser(authURL string) error {
	name, args, err := browserCommand(runtime.GOOS, authURL)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
