package fetcher

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gomera-scraper/apperr"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// SessionOptions configures the headless browser
type SessionOptions struct {
	// ChromeBin is the browser binary; empty probes the usual Linux paths
	// and falls back to a downloaded Chromium
	ChromeBin   string
	UserDataDir string
}

// Session owns the lifecycle of one headless browser process
type Session struct {
	opts     SessionOptions
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewSession creates a Session; no browser is started until Start is called
func NewSession(opts SessionOptions) *Session {
	return &Session{opts: opts}
}

var linuxChromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// Start launches the browser if no session is active. Calling it again is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return nil
	}

	l := s.newLauncher()
	controlURL, err := l.Launch()
	if err != nil {
		return apperr.Wrap(apperr.KindLaunch, err, "failed to launch browser")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return apperr.Wrap(apperr.KindLaunch, err, "failed to connect to browser")
	}

	s.launcher = l
	s.browser = browser
	return nil
}

func (s *Session) newLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		// Containers ship a tiny /dev/shm
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("no-zygote")

	if s.opts.UserDataDir != "" {
		if err := os.MkdirAll(s.opts.UserDataDir, 0755); err != nil {
			log.Printf("Warning: Failed to create browser data directory %s: %v\n", s.opts.UserDataDir, err)
		} else {
			l = l.UserDataDir(s.opts.UserDataDir)
		}
	}

	if bin := s.chromeBin(); bin != "" {
		l = l.Bin(bin)
	}
	return l
}

func (s *Session) chromeBin() string {
	if s.opts.ChromeBin != "" {
		return s.opts.ChromeBin
	}
	for _, path := range linuxChromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Stop closes the browser and clears the handle. It is a no-op if not started.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}

	err := s.browser.Close()
	if s.launcher != nil {
		s.launcher.Kill()
	}
	s.browser = nil
	s.launcher = nil

	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// Browser returns the active browser, or nil before Start
func (s *Session) Browser() *rod.Browser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser
}

// Started reports whether a browser is active
func (s *Session) Started() bool {
	return s.Browser() != nil
}
