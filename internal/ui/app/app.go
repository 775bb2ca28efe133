// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/bridge"
	"github.com/siteassist/siteassist-widgets/internal/config"
	"github.com/siteassist/siteassist-widgets/internal/loader"
	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/session"
	"github.com/siteassist/siteassist-widgets/internal/ui/components"
	"github.com/siteassist/siteassist-widgets/internal/ui/styles"
)

// =============================================================================
// SCREEN INTERFACE
// =============================================================================

// screen is one routed view. The root model forwards messages to the
// active screen and swaps screens on navigation.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
}

// teardowner is implemented by screens holding background resources.
type teardowner interface {
	Teardown()
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// Deps are the wired services the UI runs on.
type Deps struct {
	Config *config.Config
	Client *api.Client
	Loader *loader.Loader
	Store  *session.Store

	// Bridge is the host pipe, nil when running standalone.
	Bridge *bridge.Bridge
}

// App is the root Bubble Tea model: it boots the widget, owns the
// cross-screen state and routes between screens.
type App struct {
	shared *Shared

	bridge   *bridge.Bridge
	bridgeCh chan bridge.Envelope

	route  Route
	screen screen

	booted  bool
	bootErr error
}

// New builds the root model. Call Program.Run on it.
func New(deps Deps) *App {
	shared := &Shared{
		Config: deps.Config,
		Client: deps.Client,
		Loader: deps.Loader,
		Store:  deps.Store,
		Toasts: components.NewToastManager(),
	}
	shared.Theme = styles.NewTheme(deps.Config.Theme, nil)
	shared.Renderer = components.NewMessageRenderer(shared.Theme, 80)

	return &App{
		shared:   shared,
		bridge:   deps.Bridge,
		bridgeCh: make(chan bridge.Envelope, 16),
	}
}

// SetBridge attaches the host bridge. Must be called before the
// program starts; the bridge handler should be HandleEnvelope.
func (a *App) SetBridge(b *bridge.Bridge) {
	a.bridge = b
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		BootCmd(a.shared.Loader),
		components.ToastTickCmd(),
	}
	if a.bridge != nil {
		cmds = append(cmds, PumpBridgeCmd(a.bridgeCh, a.bridge.Done()))
	}
	return tea.Batch(cmds...)
}

// HandleEnvelope is the bridge read-loop handler; it hands envelopes
// to the event loop. Safe to call from the bridge goroutine.
func (a *App) HandleEnvelope(env bridge.Envelope) {
	select {
	case a.bridgeCh <- env:
	default:
		xlog.Debug("Dropping bridge envelope, queue full", "type", env.Type)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.teardown()
			return a, tea.Quit
		}
		if a.bootErr != nil {
			switch msg.String() {
			case "r", "enter":
				a.bootErr = nil
				return a, BootCmd(a.shared.Loader)
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.shared.Width = msg.Width
		a.shared.Height = msg.Height
		a.shared.Renderer.SetWidth(msg.Width)
		if a.screen != nil {
			a.screen.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case components.ToastTickMsg:
		a.shared.Toasts.Tick()
		return a, components.ToastTickCmd()

	case BootedMsg:
		return a, a.handleBooted(msg)

	case ProjectRefreshedMsg:
		if !a.shared.Preview {
			a.shared.Project = msg.Project
			a.applyTheme(a.shared.Theme.Mode)
		}
		return a, nil

	case NavigateMsg:
		return a, a.navigate(msg)

	case ConversationCreatedMsg:
		if a.screen != nil {
			a.screen.Update(msg)
		}
		if msg.Err != nil {
			a.shared.Toasts.AddError("Could not start a conversation")
			return a, nil
		}
		return a, a.navigate(NavigateMsg{
			Route: Route{Kind: RouteChat, ID: msg.Conversation.ID},
			Pending: &model.PendingMessage{
				ID:      uuid.NewString(),
				Content: msg.FirstMessage,
			},
			AutoFocus: true,
		})

	case BridgeEnvelopeMsg:
		return a, a.handleEnvelope(msg.Envelope)

	case BridgeClosedMsg:
		xlog.Debug("Bridge pipe closed")
		return a, nil

	case ConfigReloadedMsg:
		// The theme is the only setting safe to swap mid-run.
		if msg.Config.Theme != a.shared.Theme.Mode {
			a.applyTheme(msg.Config.Theme)
		}
		return a, nil
	}

	if a.screen != nil {
		return a, a.screen.Update(msg)
	}
	return a, nil
}

// handleBooted installs the project, resolves the theme and routes to
// the resumed conversation or the home screen.
func (a *App) handleBooted(msg BootedMsg) tea.Cmd {
	if msg.Err != nil {
		a.bootErr = msg.Err
		return nil
	}

	a.booted = true
	a.shared.Project = msg.Boot.Project
	a.shared.Visitor = msg.Boot.Visitor
	a.applyTheme(a.shared.Config.Theme)

	route := Route{Kind: RouteHome}
	if id := a.shared.Store.ActiveConversationID(a.shared.Config.APIKey); id != "" {
		route = Route{Kind: RouteChat, ID: id}
	}

	return tea.Batch(
		a.navigate(NavigateMsg{Route: route, AutoFocus: true}),
		RefreshProjectCmd(a.shared.Loader),
	)
}

// navigate swaps the active screen.
func (a *App) navigate(msg NavigateMsg) tea.Cmd {
	if td, ok := a.screen.(teardowner); ok {
		td.Teardown()
	}

	a.route = msg.Route
	switch msg.Route.Kind {
	case RouteChat:
		a.screen = newChat(a.shared, msg.Route.ID, msg.Pending, msg.AutoFocus)
	case RouteChats:
		a.screen = newChats(a.shared)
	case RouteQnAs:
		a.screen = newQnAs(a.shared)
	case RouteQnA:
		a.screen = newQnA(a.shared, msg.Route.ID)
	case RouteNotFound:
		a.screen = newNotFound(a.shared)
	default:
		a.screen = newHome(a.shared)
	}

	if a.shared.Width > 0 {
		a.screen.SetSize(a.shared.Width, a.shared.Height)
	}
	return a.screen.Init()
}

// handleEnvelope applies one host message.
func (a *App) handleEnvelope(env bridge.Envelope) tea.Cmd {
	pump := PumpBridgeCmd(a.bridgeCh, a.bridge.Done())

	switch env.Type {
	case bridge.TypeChangeTheme:
		if mode, ok := bridge.ParseTheme(env.Payload); ok {
			a.applyTheme(mode)
		}

	case bridge.TypePageURL:
		if u, ok := bridge.ParsePageURL(env.Payload); ok {
			a.shared.SetPageURL(u)
		}

	case bridge.TypePreviewProject:
		if project, ok := bridge.ParsePreviewProject(env.Payload); ok {
			a.shared.Preview = true
			a.shared.Project = project
			a.applyTheme(a.shared.Theme.Mode)
		}

	case bridge.TypeFocus:
		if a.screen != nil {
			return tea.Batch(pump, a.screen.Update(FocusMsg{}))
		}

	default:
		xlog.Debug("Ignoring unknown bridge envelope", "type", env.Type)
	}
	return pump
}

// applyTheme rebuilds the theme and renderer from the current project
// branding and the given mode.
func (a *App) applyTheme(mode string) {
	var widgetCfg *model.WidgetConfig
	if a.shared.Project != nil {
		widgetCfg = &a.shared.Project.ChatWidgetConfig
	}
	a.shared.Theme = styles.NewTheme(mode, widgetCfg)
	width := a.shared.Width
	if width == 0 {
		width = 80
	}
	a.shared.Renderer = components.NewMessageRenderer(a.shared.Theme, width)
}

func (a *App) teardown() {
	if td, ok := a.screen.(teardowner); ok {
		td.Teardown()
	}
}

func (a *App) View() string {
	if a.bootErr != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			a.shared.Theme.ErrorText.Render("Could not start the widget") +
				"\n\n" + a.bootErr.Error() +
				"\n\n" + a.shared.Theme.HelpText.Render("r retry · ctrl+c quit"),
		)
	}
	if !a.booted || a.screen == nil {
		return lipgloss.NewStyle().Padding(1, 2).Render("starting...")
	}

	view := a.screen.View()
	if a.shared.Toasts.HasToasts() {
		view += "\n" + components.RenderToasts(a.shared.Toasts.Toasts(), a.shared.Width)
	}
	return view
}
