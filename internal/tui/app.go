// Package tui is the terminal front end of foodfriend. It follows the Elm
// architecture bubbletea uses: the App holds a stack of screens, Update
// routes messages to the top one and View renders it.
//
// Screens that fetch data own a screen.Loader per fetch. Fetches run as
// tea.Cmds under the screen's context; popping a screen cancels that
// context and stops its loaders, so late results are dropped.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/api"
	"github.com/foodfriend/foodfriend/pkg/appstate"
	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/food"
	"github.com/foodfriend/foodfriend/pkg/screen"
	"github.com/foodfriend/foodfriend/pkg/session"
)

// API is the part of the recipe and meal analysis client the screens use.
type API interface {
	capture.RecipeAnalyzer
	capture.MealAnalyzer
	SaveRecipe(ctx context.Context, r food.Recipe, userID string) error
	GlobalRecipes(ctx context.Context, opts api.ListOptions) ([]food.Recipe, error)
	SavedRecipes(ctx context.Context, userID string) ([]food.Recipe, error)
	Recipe(ctx context.Context, id int64) (food.Recipe, error)
	HealthScore(ctx context.Context, userID string) (food.HealthScore, error)
	MealsForDay(ctx context.Context, userID, date string, limit int) ([]food.Meal, error)
}

// Options wires the App to its collaborators. API and Gate are required.
type Options struct {
	API   API
	Gate  *session.Gate
	Store *appstate.Store
	// Tokens persists the session across runs. Optional.
	Tokens *session.TokenCache
	// SignIn runs the identity provider flow. Nil disables sign-in.
	SignIn func(ctx context.Context) (*session.Session, error)
	// Camera backs the camera and snapshot sources. Nil leaves only files.
	Camera *capture.Camera
	Now    func() time.Time
}

// view is one screen of the stack.
type view interface {
	route() session.Route
	// init starts the screen's fetches.
	init(a *App) tea.Cmd
	update(a *App, msg tea.Msg) tea.Cmd
	render(a *App) string
	// stop cancels the screen's fetches. Called when it is unmounted.
	stop()
	// capturesKeys reports whether a text field has focus.
	capturesKeys() bool
}

// App is the root bubbletea model.
type App struct {
	opts     Options
	workflow *capture.Workflow
	ctx      context.Context
	cancel   context.CancelFunc

	stack   []view
	spinner spinner.Model
	width   int
	height  int
}

// loadedMsg carries a finished fetch back to the event loop. apply hands
// the result to the loader that started it.
type loadedMsg struct {
	apply func() bool
}

// viewMsg is a result addressed to the screen that asked for it. Update
// delivers it to that screen only while it is mounted.
type viewMsg interface {
	sender() view
}

// signedInMsg is the result of the identity provider flow.
type signedInMsg struct {
	session *session.Session
	err     error
}

func NewApp(opts Options) (*App, error) {
	if opts.API == nil || opts.Gate == nil {
		return nil, errors.New("tui: API and Gate are required")
	}
	if opts.Store == nil {
		opts.Store = appstate.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	a := &App{
		opts:     opts,
		workflow: capture.NewWorkflow(opts.Store, opts.API, opts.API),
		ctx:      ctx,
		cancel:   cancel,
		spinner:  sp,
	}
	return a, nil
}

// Close cancels every running fetch.
func (a *App) Close() {
	for _, v := range a.stack {
		v.stop()
	}
	a.cancel()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.navigate(session.RouteHome))
}

// load starts l for key and returns the command that runs the fetch.
func load[T any](ctx context.Context, l *screen.Loader[T], key, what string) tea.Cmd {
	run := l.Start(ctx, key)
	return func() tea.Msg {
		res := run()
		return loadedMsg{apply: func() bool {
			ok := l.Apply(res)
			if ok && res.Err != nil {
				utils.Log.Warnf("%s (%s): %v", what, key, res.Err)
			}
			return ok
		}}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loadedMsg:
		msg.apply()
		return a, nil

	case signedInMsg:
		return a, a.handleSignedIn(msg)

	case viewMsg:
		v := msg.sender()
		if !a.mounted(v) {
			utils.Log.Debugf("dropping %T for a closed screen", msg)
			return a, nil
		}
		return a, v.update(a, msg)

	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}
	}

	if top := a.top(); top != nil {
		return a, top.update(a, msg)
	}
	return a, nil
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		a.Close()
		return tea.Quit, true
	}
	top := a.top()
	if top != nil && top.route() != session.RouteSignIn && !a.opts.Gate.SignedIn() {
		// The session expired while the screen was open.
		return a.navigate(top.route()), true
	}
	if top != nil && top.capturesKeys() {
		return nil, false
	}
	switch msg.String() {
	case "q":
		a.Close()
		return tea.Quit, true
	case "esc", "backspace":
		return a.pop(), true
	case "1":
		return a.navigate(session.RouteHome), true
	case "2":
		return a.navigate(session.RouteCreate), true
	case "3":
		return a.navigate(session.RouteProfile), true
	}
	return nil, false
}

func (a *App) handleSignedIn(msg signedInMsg) tea.Cmd {
	if v, ok := a.top().(*signInView); ok {
		v.busy = false
		v.err = msg.err
	}
	if msg.err != nil {
		utils.Log.Warnf("sign-in failed: %v", msg.err)
		return nil
	}
	a.opts.Gate.Establish(msg.session)
	if a.opts.Tokens != nil {
		if err := a.opts.Tokens.Save(msg.session.Token); err != nil {
			utils.Log.Warnf("could not cache session: %v", err)
		}
	}
	return a.navigate(session.RouteHome)
}

func (a *App) signOut() tea.Cmd {
	a.opts.Gate.SignOut()
	a.opts.Store.Reset()
	if a.opts.Tokens != nil {
		if err := a.opts.Tokens.Clear(); err != nil {
			utils.Log.Warnf("could not clear session cache: %v", err)
		}
	}
	return a.navigate(session.RouteSignIn)
}

func (a *App) top() view {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// Route is the route of the visible screen.
func (a *App) Route() session.Route {
	if top := a.top(); top != nil {
		return top.route()
	}
	return ""
}

// navigate resets the stack to a root screen, after the gate had its say.
func (a *App) navigate(r session.Route) tea.Cmd {
	resolved := a.opts.Gate.Resolve(r)
	var v view
	switch resolved {
	case session.RouteSignIn:
		v = newSignInView(a)
	case session.RouteCreate:
		v = newCreateView(a)
	case session.RouteProfile:
		v = newProfileView(a)
	default:
		v = newHomeView(a)
	}
	for _, old := range a.stack {
		old.stop()
	}
	a.stack = []view{v}
	return v.init(a)
}

// push opens a detail screen on top of the current one.
func (a *App) push(v view) tea.Cmd {
	if resolved := a.opts.Gate.Resolve(v.route()); resolved != v.route() {
		v.stop()
		return a.navigate(resolved)
	}
	a.stack = append(a.stack, v)
	return v.init(a)
}

func (a *App) mounted(v view) bool {
	for _, s := range a.stack {
		if s == v {
			return true
		}
	}
	return false
}

func (a *App) pop() tea.Cmd {
	if len(a.stack) <= 1 {
		return nil
	}
	top := a.top()
	top.stop()
	a.stack = a.stack[:len(a.stack)-1]
	return nil
}

func (a *App) userID() string {
	return a.opts.Gate.UserID()
}

func (a *App) View() string {
	top := a.top()
	if top == nil {
		return ""
	}
	body := top.render(a)
	if !top.route().Tabbed() && top.route() != session.RouteSignIn {
		return lipgloss.JoinVertical(lipgloss.Left, body, hintStyle.Render("esc back · q quit"))
	}
	if top.route() == session.RouteSignIn {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.renderTabs(top.route()), body)
}

func (a *App) renderTabs(current session.Route) string {
	labels := map[session.Route]string{
		session.RouteHome:    "1 Home",
		session.RouteCreate:  "2 Create",
		session.RouteProfile: "3 Profile",
	}
	var tabs []string
	for _, r := range session.Tabs {
		style := tabStyle
		if r == current {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(labels[r]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}
