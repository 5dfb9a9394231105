package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/pinchlight/internal/app"
	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/config"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/feed"
	"github.com/ayusman/pinchlight/internal/plugin"
	"github.com/ayusman/pinchlight/internal/render"
	"github.com/ayusman/pinchlight/internal/server"
	"github.com/ayusman/pinchlight/internal/store"
	"github.com/ayusman/pinchlight/internal/tray"
)

func main() {
	configPath := flag.String("config", "~/.pinchlight/config.yaml", "path to the YAML config file")
	flag.Parse()

	fmt.Println("Pinchlight - pinch the box to toggle the display")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	camera := capture.NewCamera(cfg.Camera)
	if err := camera.Open(); err != nil {
		log.Fatalf("Failed to open camera %d: %v", cfg.Camera.DeviceID, err)
	}
	defer camera.Close()
	cfg.Recenter(camera.FrameSize())

	det := newDetector(cfg)
	defer det.Close()

	fd := feed.New(camera, det)
	if cfg.MotionThreshold > 0 {
		fd.SetMotionGate(capture.NewMotionDetector(cfg.MotionThreshold))
	}
	defer fd.Close()

	encoder := render.NewEncoder(render.DefaultQuality)
	a, err := app.New(app.Config{
		FPS:       cfg.FPS,
		Debounce:  cfg.Debounce,
		Region:    cfg.Region,
		Snapshots: fd.Snapshots(),
		Frames:    fd.Frames(),
		Encoder:   encoder,
		Store:     st,
		Hook:      newHook(cfg),
	})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Wait()

	events := server.NewEventsHandler(func() any {
		status := a.Status()
		return app.Notice{Type: app.NoticeStatus, Status: &status}
	})
	a.Subscribe(func(n app.Notice) { events.Broadcast(n) })

	fd.SetIdle(!a.IsEnabled())
	a.Subscribe(func(n app.Notice) {
		if n.Type == app.NoticeStatus {
			fd.SetIdle(!n.Status.Enabled)
		}
	})

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		App:       a,
		Preview:   encoder,
		Events:    events,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go fd.Run(ctx)
	go a.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		serverErr <- srv.Run(ctx, cfg.Addr)
	}()

	if cfg.Tray {
		t := newTray(a, cfg.Addr, stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	}

	if err := <-serverErr; err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newDetector returns the MediaPipe detector, or the mock one when
// configured or when the service script cannot be found.
func newDetector(cfg *config.Config) detector.Detector {
	if cfg.MockDetector {
		log.Println("detector: using mock detector")
		return detector.NewMockDetector()
	}
	mp, err := detector.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		log.Printf("detector: %v; falling back to mock detector", err)
		return detector.NewMockDetector()
	}
	return mp
}

// newHook returns the configured activation plugin, or nil.
func newHook(cfg *config.Config) app.Hook {
	if cfg.OnActivate.Plugin == "" {
		return nil
	}

	manager := plugin.NewManager(cfg.PluginDir)
	if err := manager.Discover(); err != nil {
		log.Printf("plugin: discover %s: %v", cfg.PluginDir, err)
	}

	hook := plugin.NewHook(manager, plugin.NewExecutor(plugin.DefaultTimeout), cfg.OnActivate.Plugin, cfg.OnActivate.Action)
	if _, err := manager.Get(cfg.OnActivate.Plugin); errors.Is(err, plugin.ErrPluginNotFound) {
		log.Printf("plugin: %s not installed in %s; activations will log an error", hook, cfg.PluginDir)
	}
	return hook
}

// newTray builds the tray menu and keeps it in sync with a.
func newTray(a *app.App, addr string, stop context.CancelFunc) *tray.Tray {
	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnSettings(func() { openBrowser(settingsURL(addr)) })
	t.OnQuit(stop)

	a.Subscribe(func(n app.Notice) {
		switch n.Type {
		case app.NoticeActivation:
			t.SetDisplay(n.Activation.Display)
		case app.NoticeStatus:
			t.SetEnabled(n.Status.Enabled)
		}
	})

	return t
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
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
		log.Printf("tray: open %s: %v", url, err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.pinchlight/web.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".pinchlight", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
