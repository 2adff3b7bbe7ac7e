package popup

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// ExecOpener opens URLs with the platform browser command. It is the
// production OpenFunc wrapped by the Tracker.
func ExecOpener(rawURL string) (Window, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	w := &execWindow{cmd: cmd}
	go func() {
		_ = cmd.Wait()
		w.mu.Lock()
		w.exited = true
		w.mu.Unlock()
	}()
	return w, nil
}

// execWindow tracks the launcher process. Most launchers hand the URL to an
// already-running browser and exit immediately, so liveness here is a weak
// signal; the tracker's closed-on-doubt rule makes that safe.
type execWindow struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	exited bool
}

func (w *execWindow) IsOpen() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.exited, nil
}

// Focus is not supported for an external browser window.
func (w *execWindow) Focus() error {
	return fmt.Errorf("focus not supported")
}

func (w *execWindow) Close() error {
	w.mu.Lock()
	exited := w.exited
	w.mu.Unlock()
	if exited {
		return nil
	}
	return w.cmd.Process.Kill()
}
