package fetch

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserFetcher renders pages in headless Chromium before handing the HTML
// to extraction. Needed for retailers that only populate prices from
// JavaScript. The stealth page profile replaces the hand-rolled
// navigator overrides a plain headless session would need.
type BrowserFetcher struct {
	browser *rod.Browser
}

func NewBrowserFetcher() (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	// Use system Chromium in container environments, auto-detect locally.
	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
		log.Printf("Using system Chromium")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %v", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %v", err)
	}

	return &BrowserFetcher{browser: browser}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("open page: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %v", url, err)
	}

	body, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read html of %s: %v", url, err)
	}
	if body == "" {
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}

	if reason, blocked := DetectBotWall([]byte(body)); blocked {
		return nil, fmt.Errorf("fetch %s: %s", url, reason)
	}
	return []byte(body), nil
}

// Close shuts down the browser process.
func (f *BrowserFetcher) Close() {
	if f.browser != nil {
		_ = f.browser.Close()
	}
}
