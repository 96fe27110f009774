package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"dealerscout/internal/logger"
)

// RodConfig configures the Chromium launch.
type RodConfig struct {
	Headless  bool
	ChromeBin string
	UserAgent string
}

// RodBrowser launches a fresh Chromium per session.
type RodBrowser struct {
	config RodConfig
}

func NewRodBrowser(cfg RodConfig) *RodBrowser {
	return &RodBrowser{config: cfg}
}

// Open launches Chromium and returns a stealth page bound to it. The process
// is killed when the session closes.
func (b *RodBrowser) Open(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(b.config.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("window-size", "1920,1080")
	if b.config.UserAgent != "" {
		l = l.Set("user-agent", b.config.UserAgent)
	}

	if chromiumPath := findChromiumPath(b.config.ChromeBin); chromiumPath != "" {
		logger.Debugf("using Chromium at %s", chromiumPath)
		l = l.Bin(chromiumPath)
	}

	if isDockerEnvironment() {
		logger.Debug("container environment detected, applying container-specific flags")
		l = l.Set("disable-setuid-sandbox").
			Set("no-first-run").
			Set("disable-default-apps")
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodSession{launcher: l, browser: browser, page: page}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) FindAll(ctx context.Context, xpath string) ([]Node, error) {
	els, err := s.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, len(els))
	for i, el := range els {
		nodes[i] = &rodNode{el: el}
	}
	return nodes, nil
}

func (s *rodSession) Find(ctx context.Context, xpath string) (Node, error) {
	el, err := s.page.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementX(xpath)
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rodNode{el: el}, nil
}

func (s *rodSession) Back(ctx context.Context) error {
	return s.page.Context(ctx).NavigateBack()
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

type rodNode struct {
	el *rod.Element
}

func (n *rodNode) Text() (string, error) {
	return n.el.Text()
}

func (n *rodNode) Attribute(name string) (*string, error) {
	return n.el.Attribute(name)
}

// Click uses a DOM click so overlays covering the link do not intercept it.
func (n *rodNode) Click() error {
	_, err := n.el.Eval(`() => this.click()`)
	return err
}

func (n *rodNode) ScrollTo(position int) error {
	_, err := n.el.Eval(`(y) => {
		if (this === document.body) {
			window.scrollTo(0, y)
		} else {
			this.scrollTop = y
		}
	}`, position)
	return err
}

func (n *rodNode) ScrollHeight() (int, error) {
	res, err := n.el.Eval(`() => this === document.body ? document.body.scrollHeight : this.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// findChromiumPath prefers the configured binary, then CHROME_BIN, then the
// usual install locations. Empty means let rod download its own.
func findChromiumPath(configured string) string {
	candidates := []string{configured, os.Getenv("CHROME_BIN")}
	candidates = append(candidates,
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
		"/opt/google/chrome/chrome",
	)

	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// isDockerEnvironment checks if running inside Docker
func isDockerEnvironment() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		return strings.Contains(string(data), "docker") || strings.Contains(string(data), "containerd")
	}

	return false
}
