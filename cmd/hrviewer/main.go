package main

import (
	"errors"
	"fmt"
	"image/color"
	png "image/png"
	"os"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/pflag"

	"github.com/iafilius/ClusterHR/cmd/hrviewer/uihelpers"
	"github.com/iafilius/ClusterHR/src/config"
	"github.com/iafilius/ClusterHR/src/gaia"
	"github.com/iafilius/ClusterHR/src/hrplot"
	"github.com/iafilius/ClusterHR/src/logx"
	"github.com/iafilius/ClusterHR/src/vizier"
)

const (
	windowTitle     = "HR Diagram Plotter"
	promptText      = "Enter any cluster of your choice (e.g., M53, M45):"
	plotButtonText  = "Plot HR Diagram"
	recentPrefKey   = "recentClusters"
	lastClusterPref = "lastCluster"
)

// dark theme wrapper
type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}
func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource { return theme.DefaultTheme().Font(style) }
func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 { return theme.DefaultTheme().Size(name) }

type uiState struct {
	app    fyne.App
	window fyne.Window
	cfg    *config.Config

	entry     *widget.SelectEntry
	plotBtn   *widget.Button
	cancelBtn *widget.Button
	status    *widget.Label
	output    *canvas.Image

	sess     *session
	lastPlot *hrplot.Plot
}

func main() {
	fs := pflag.NewFlagSet("hrviewer", pflag.ExitOnError)
	config.RegisterFlags(fs)
	screenshot := fs.String("screenshot", "", "Render the diagram for --cluster to this PNG and exit (no window)")
	cluster := fs.String("cluster", "", "Cluster to plot on startup (or with --screenshot)")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logx.SetLevel(cfg.LogLevel)

	if *screenshot != "" {
		if err := RunScreenshotMode(cfg, *cluster, *screenshot); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.clusterhr.viewer")
	a.Settings().SetTheme(&darkTheme{})
	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(1100, 800))

	state := &uiState{app: a, window: w, cfg: cfg}
	state.output = canvas.NewImageFromImage(hrplot.Blank(cfg.ChartWidth, cfg.ChartHeight))
	state.output.FillMode = canvas.ImageFillContain
	state.output.SetMinSize(fyne.NewSize(float32(cfg.ChartWidth)/2, float32(cfg.ChartHeight)/2))

	state.sess = newSession(cfg.NewPipeline(), func() (int, int) { return chartSize(state) }, fyne.Do)
	state.sess.onStart = state.begin
	state.sess.onDone = state.finish

	state.entry = widget.NewSelectEntry(recentClusters(state))
	state.entry.SetPlaceHolder("M53")
	state.entry.OnSubmitted = func(string) { state.submit() }
	state.plotBtn = widget.NewButton(plotButtonText, state.submit)
	state.plotBtn.Importance = widget.HighImportance
	state.cancelBtn = widget.NewButton("Cancel", func() { state.sess.Cancel() })
	state.cancelBtn.Disable()
	state.status = widget.NewLabel("Idle")

	buttons := container.NewHBox(state.plotBtn, state.cancelBtn)
	top := container.NewVBox(
		widget.NewLabel(promptText),
		container.NewBorder(nil, nil, nil, buttons, state.entry),
	)
	content := container.NewBorder(top, state.status, nil, nil, state.output)
	w.SetContent(content)

	buildMenus(state)

	// Re-render the current plot when the window width changes
	done := make(chan struct{})
	w.SetOnClosed(func() {
		close(done)
		state.sess.Close()
	})
	go watchResize(state, done)

	if *cluster != "" {
		state.entry.SetText(*cluster)
		state.submit()
	} else {
		state.entry.SetText(a.Preferences().StringWithFallback(lastClusterPref, ""))
	}

	w.ShowAndRun()
}

func (st *uiState) submit() { st.sess.Submit(st.entry.Text) }

// begin runs on the UI goroutine when a submission starts.
func (st *uiState) begin(cluster string) {
	st.plotBtn.Disable()
	st.cancelBtn.Enable()
	st.status.SetText(fmt.Sprintf("Fetching %s from VizieR %s…", cluster, st.cfg.Catalog))
}

// finish runs on the UI goroutine with the newest submission's outcome.
func (st *uiState) finish(out outcome) {
	st.plotBtn.Enable()
	st.cancelBtn.Disable()

	switch {
	case out.Canceled():
		st.status.SetText(fmt.Sprintf("Canceled %s", out.Cluster))
		return
	case out.Err != nil:
		logx.Errorf("%s: %v", out.Cluster, out.Err)
		st.status.SetText(fmt.Sprintf("Failed: %s", out.Cluster))
		dialog.ShowError(describeError(out.Err), st.window)
		return
	}

	addRecentCluster(st, out.Cluster)
	if out.Plot == nil {
		st.status.SetText(out.Result.Summary() + " (nothing plotted: BP-RP or Gmag missing)")
		return
	}
	st.lastPlot = out.Plot
	st.output.Image = out.Image
	st.output.Refresh()
	st.status.SetText(out.Result.Summary())
}

// describeError turns pipeline errors into something readable in a dialog.
func describeError(err error) error {
	var hs *vizier.HTTPStatusError
	switch {
	case errors.Is(err, vizier.ErrNoTables):
		return fmt.Errorf("VizieR returned no rows. Check the cluster name.\n\n%w", err)
	case errors.Is(err, gaia.ErrMissingColumn):
		return fmt.Errorf("the catalog response lacks required columns\n\n%w", err)
	case errors.As(err, &hs):
		return fmt.Errorf("VizieR responded with %s\n\n%w", hs.Status, err)
	}
	return err
}

func watchResize(state *uiState, done <-chan struct{}) {
	t := time.NewTicker(300 * time.Millisecond)
	defer t.Stop()
	prevW := 0
	for {
		select {
		case <-done:
			return
		case <-t.C:
			c := state.window.Canvas()
			if c == nil {
				continue
			}
			curW := int(c.Size().Width)
			if curW == prevW {
				continue
			}
			prevW = curW
			fyne.Do(func() { redraw(state) })
		}
	}
}

// redraw re-renders the last plot at the current size off the UI goroutine.
func redraw(state *uiState) {
	p := state.lastPlot
	if p == nil || state.sess.State() == stateRendering {
		return
	}
	cw, ch := chartSize(state)
	go func() {
		img, err := hrplot.Render(p, cw, ch)
		if err != nil {
			logx.Warnf("resize render: %v", err)
			return
		}
		fyne.Do(func() {
			if state.lastPlot != p {
				return
			}
			state.output.Image = img
			state.output.Refresh()
		})
	}()
}

// chartSize computes the render size from the window, falling back to the configured size.
func chartSize(state *uiState) (int, int) {
	if state == nil || state.cfg == nil {
		return hrplot.DefaultWidth, hrplot.DefaultHeight
	}
	if state.window == nil || state.window.Canvas() == nil {
		return state.cfg.ChartWidth, state.cfg.ChartHeight
	}
	sz := state.window.Canvas().Size()
	if sz.Width <= 0 || sz.Height <= 0 {
		return state.cfg.ChartWidth, state.cfg.ChartHeight
	}
	return uihelpers.ComputeChartDimensions(int(sz.Width), int(sz.Height))
}

// menus and dialogs
func buildMenus(state *uiState) {
	if state == nil || state.window == nil || state.app == nil {
		return
	}
	var items []*fyne.MenuItem
	for _, c := range recentClusters(state) {
		c := c
		items = append(items, fyne.NewMenuItem(uihelpers.TruncateLabel(c, 40), func() {
			state.entry.SetText(c)
			state.submit()
		}))
	}
	clearRecent := fyne.NewMenuItem("Clear Recent", func() { clearRecentClusters(state); buildMenus(state) })
	recentMenu := fyne.NewMenu("Recent Clusters", append(items, clearRecent)...)
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Export Plot PNG…", func() { exportPlotPNG(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu, recentMenu))

	canv := state.window.Canvas()
	if canv != nil {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { exportPlotPNG(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { exportPlotPNG(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { state.window.Close() })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { state.window.Close() })
	}
}

// export PNG at the configured size, independent of the window size
func exportPlotPNG(state *uiState) {
	if state == nil || state.window == nil {
		return
	}
	p := state.lastPlot
	if p == nil {
		dialog.ShowInformation("Export", "No plot to export.", state.window)
		return
	}
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		img, err := hrplot.Render(p, state.cfg.ChartWidth, state.cfg.ChartHeight)
		if err == nil {
			err = png.Encode(wc, img)
		}
		if err != nil {
			dialog.ShowError(fmt.Errorf("export: %w", err), state.window)
		}
	}, state.window)
	fs.SetFileName(uihelpers.ExportFileName(p.Cluster))
	fs.Show()
}

// recent clusters helpers
func recentClusters(state *uiState) []string {
	return uihelpers.ParseRecent(state.app.Preferences().StringWithFallback(recentPrefKey, ""))
}

func addRecentCluster(state *uiState, name string) {
	prefs := state.app.Preferences()
	list := uihelpers.AddRecent(recentClusters(state), name, uihelpers.MaxRecent)
	prefs.SetString(recentPrefKey, uihelpers.FormatRecent(list))
	prefs.SetString(lastClusterPref, name)
	if state.entry != nil {
		state.entry.SetOptions(list)
	}
	buildMenus(state)
}

func clearRecentClusters(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	state.app.Preferences().SetString(recentPrefKey, "")
	if state.entry != nil {
		state.entry.SetOptions(nil)
	}
}
