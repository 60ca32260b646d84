package utils

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// SystemInfo holds what the agent needs to know about the host.
type SystemInfo struct {
	OS            string
	Architecture  string
	ChromePresent bool
	ChromePath    string
	SpoolerPath   string
}

// DetectSystem inspects the host for Chrome and the print spooler.
func DetectSystem() SystemInfo {
	info := SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	info.ChromePresent, info.ChromePath = CheckChrome()
	info.SpoolerPath = LookupSpooler()
	return info
}

// --------------------------------------
// CHROME CHECK
// --------------------------------------

// CheckChrome checks if google-chrome or chromium is installed
func CheckChrome() (bool, string) {
	binaries := []string{
		"google-chrome",
		"google-chrome-stable",
		"chromium",
		"chromium-browser",
	}

	for _, bin := range binaries {
		path, err := exec.LookPath(bin)
		if err == nil {
			return true, path
		}
	}

	for _, path := range getCommonChromePaths() {
		if _, err := os.Stat(path); err == nil {
			return true, path
		}
	}

	return false, ""
}

func getCommonChromePaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}

	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}

	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chromium.exe`,
			`C:\Program Files (x86)\Chromium\Application\chromium.exe`,
		}

	default:
		return []string{}
	}
}

// --------------------------------------
// SPOOLER CHECK
// --------------------------------------

// LookupSpooler returns the path of the command used to submit print
// jobs, or "" when it cannot be found.
func LookupSpooler() string {
	name := "lp"
	if runtime.GOOS == "windows" {
		name = "powershell"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// --------------------------------------
// VALIDATION
// --------------------------------------

// ReportSystem writes a human readable summary of the host to w and
// returns an error when printing cannot work at all.
func ReportSystem(w io.Writer, info SystemInfo) error {
	fmt.Fprintf(w, "System Information:\n")
	fmt.Fprintf(w, "  OS: %s\n", info.OS)
	fmt.Fprintf(w, "  Architecture: %s\n\n", info.Architecture)

	if info.ChromePresent {
		fmt.Fprintf(w, "✓ Chrome/Chromium found at: %s\n", info.ChromePath)
		fmt.Fprintf(w, "  Version: %s\n", getChromeVersion(info.ChromePath))
	} else {
		fmt.Fprintln(w, "✗ Chrome / Chromium not found, receipts will be drawn with the built-in PDF renderer.")
		showChromeInstallationInstructions(w, info.OS)
	}
	fmt.Fprintln(w)

	if info.SpoolerPath == "" {
		fmt.Fprintln(w, "✗ Print spooler command not found (lp / powershell).")
		return fmt.Errorf("print spooler is required but not installed")
	}
	fmt.Fprintf(w, "✓ Print spooler: %s\n", info.SpoolerPath)
	return nil
}

func getChromeVersion(path string) string {
	cmd := exec.Command(path, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

// --------------------------------------
// INSTALLATION INSTRUCTIONS
// --------------------------------------

func showChromeInstallationInstructions(w io.Writer, osType string) {
	fmt.Fprintln(w, "  Installation Instructions:")

	switch osType {
	case "linux":
		fmt.Fprintln(w, "    Ubuntu / Debian: sudo apt install chromium-browser")
		fmt.Fprintln(w, "    Fedora:          sudo dnf install chromium")
		fmt.Fprintln(w, "    Arch:            sudo pacman -S chromium")

	case "darwin":
		fmt.Fprintln(w, "    brew install --cask google-chrome")

	case "windows":
		fmt.Fprintln(w, "    https://www.google.com/chrome/")

	default:
		fmt.Fprintln(w, "    Please install Chrome or Chromium for your OS.")
	}
}
