package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/session"
)

type captureAction struct {
	label  string
	source capture.Source
	meal   bool
}

var captureActions = []captureAction{
	{"Analyse a dish with the camera", capture.SourceCamera, false},
	{"Snap a dish without preview", capture.SourceSnapshot, false},
	{"Analyse a dish photo from a file", capture.SourceGallery, false},
	{"Track a meal with the camera", capture.SourceCamera, true},
	{"Track a meal from a file", capture.SourceGallery, true},
}

// cameraClosedMsg is sent when the interactive capture command exits.
type cameraClosedMsg struct {
	from *createView
	path string
	meal bool
	err  error
}

type captureDoneMsg struct {
	from   *createView
	meal   bool
	recipe food.Recipe
	logged food.Meal
	err    error
}

func (m cameraClosedMsg) sender() view { return m.from }

func (m captureDoneMsg) sender() view { return m.from }

// createView starts captures: camera, snapshot or a file from disk.
type createView struct {
	base
	cursor int
	input  textinput.Model
	typing bool
	// forMeal is the action the path input belongs to.
	forMeal        bool
	busy           bool
	status         string
	failed         bool
	needPermission bool
}

func newCreateView(a *App) *createView {
	ti := textinput.New()
	ti.Placeholder = "/path/to/photo.jpg"
	ti.CharLimit = 4096
	ti.Width = 50
	return &createView{base: newBase(a), input: ti}
}

func (v *createView) route() session.Route { return session.RouteCreate }

func (v *createView) init(a *App) tea.Cmd { return nil }

func (v *createView) capturesKeys() bool { return v.typing }

func (v *createView) setStatus(msg string, failed bool) {
	v.status, v.failed = msg, failed
}

func (v *createView) update(a *App, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case cameraClosedMsg:
		if msg.from != v || v.ctx.Err() != nil {
			return nil
		}
		if msg.err != nil {
			v.busy = false
			utils.Log.Debugf("capture command exited: %v", msg.err)
			v.setStatus("Capture canceled.", false)
			return nil
		}
		return v.run(a, msg.meal, capture.Captured(msg.path))

	case captureDoneMsg:
		if msg.from != v || v.ctx.Err() != nil {
			return nil
		}
		return v.finish(a, msg)

	case tea.KeyMsg:
		if v.typing {
			return v.updateInput(a, msg)
		}
		if v.busy {
			return nil
		}
		switch msg.String() {
		case "enter":
			return v.start(a, captureActions[v.cursor])
		case "g":
			if v.needPermission && a.opts.Camera != nil && a.opts.Camera.Permission != nil {
				a.opts.Camera.Permission.Set(true)
				v.needPermission = false
				v.setStatus("Camera access granted.", false)
			}
		default:
			v.cursor = moveCursor(msg.String(), v.cursor, len(captureActions))
		}
	}
	return nil
}

func (v *createView) updateInput(a *App, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.typing = false
		v.input.Blur()
		v.input.Reset()
		return nil
	case "enter":
		path := strings.TrimSpace(v.input.Value())
		v.typing = false
		v.input.Blur()
		v.input.Reset()
		return v.run(a, v.forMeal, capture.File(path))
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *createView) start(a *App, act captureAction) tea.Cmd {
	if a.workflow.Busy() {
		v.setStatus("Already analysing a photo.", false)
		return nil
	}
	v.setStatus("", false)

	if act.source == capture.SourceGallery {
		v.typing, v.forMeal = true, act.meal
		return v.input.Focus()
	}
	if a.opts.Camera == nil {
		v.setStatus("No camera configured (set camera.command).", true)
		return nil
	}

	cam := *a.opts.Camera
	cam.Stdin, cam.Stdout, cam.Stderr = nil, nil, nil
	if act.source == capture.SourceSnapshot {
		cam.Interactive = false
		return v.run(a, act.meal, &cam)
	}

	cam.Interactive = true
	cmd, path, err := cam.Prepare(v.ctx)
	if err != nil {
		return v.fail(err)
	}
	v.busy = true
	meal := act.meal
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return cameraClosedMsg{from: v, path: path, meal: meal, err: err}
	})
}

// run hands the picker to the capture workflow off the UI thread.
func (v *createView) run(a *App, meal bool, picker capture.Picker) tea.Cmd {
	v.busy = true
	ctx, wf, userID := v.ctx, a.workflow, a.userID()
	return func() tea.Msg {
		if meal {
			m, err := wf.TrackMeal(ctx, picker, userID)
			return captureDoneMsg{from: v, meal: true, logged: m, err: err}
		}
		r, err := wf.AnalyzeRecipe(ctx, picker)
		return captureDoneMsg{from: v, recipe: r, err: err}
	}
}

func (v *createView) finish(a *App, msg captureDoneMsg) tea.Cmd {
	v.busy = false
	if msg.err != nil {
		return v.fail(msg.err)
	}
	v.setStatus("", false)
	if msg.meal {
		return a.push(newMealView(a, msg.logged, true))
	}
	return a.push(newResultsView(a))
}

func (v *createView) fail(err error) tea.Cmd {
	switch {
	case errors.Is(err, capture.ErrCanceled):
		v.setStatus("Capture canceled.", false)
	case errors.Is(err, capture.ErrBusy):
		v.setStatus("Already analysing a photo.", false)
	case errors.Is(err, capture.ErrNoImage):
		v.setStatus("No image at that path.", true)
	case errors.Is(err, capture.ErrPermissionDenied):
		v.needPermission = true
		v.setStatus("Camera access is needed to take a photo.", true)
	default:
		utils.Log.Warnf("capture failed: %v", err)
		v.setStatus("Could not analyse the photo. Please try again.", true)
	}
	return nil
}

func (v *createView) render(a *App) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create"))
	b.WriteString("\n")
	for i, act := range captureActions {
		b.WriteString(cursor(v.cursor == i, act.label) + "\n")
	}
	b.WriteString("\n")
	switch {
	case v.typing:
		b.WriteString("Photo path: " + v.input.View() + "\n")
	case v.busy:
		b.WriteString(a.spinner.View() + " Analysing...\n")
	case v.status != "" && v.failed:
		b.WriteString(errorStyle.Render(v.status) + "\n")
	case v.status != "":
		b.WriteString(mutedStyle.Render(v.status) + "\n")
	}
	if uri := a.opts.Store.ImageURI(); uri != "" {
		b.WriteString(mutedStyle.Render("Last photo: "+uri) + "\n")
	}
	hint := "↑/↓ move · enter start · 1-3 tabs · q quit"
	if v.needPermission {
		hint = "g grant camera access · " + hint
	}
	if v.typing {
		hint = "enter analyse · esc cancel"
	}
	return b.String() + hintStyle.Render(hint)
}
