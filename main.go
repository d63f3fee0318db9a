package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"gemini-terminal/internal/config"
	"gemini-terminal/internal/conversation"
	"gemini-terminal/internal/gemini"
	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/session"
	"gemini-terminal/internal/settings"
	"gemini-terminal/internal/telemetry"
	"gemini-terminal/internal/ui"
)

var version = "dev"

type appState int

const (
	stateLanding appState = iota
	stateSettings
	stateModelSelect
	stateChat
)

// transport is what the app needs from either API client
type transport interface {
	session.Sender
	Model() string
	SetModel(model string)
}

type model struct {
	state   appState
	cfg     *config.Config
	repo    *settings.Repository
	client  transport
	lister  *gemini.Client
	session *session.Session

	// UI models
	landingModel     ui.LandingModel
	settingsModel    ui.SettingsModel
	modelSelectModel ui.ModelSelectModel
	chatViewModel    ui.ChatViewModel
	toast            ui.ToastModel

	// Screen size
	width  int
	height int
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.gemini-terminal/config.yaml)")
	modelName := flag.String("model", "", "Gemini model to use, overrides the config file")
	ask := flag.String("ask", "", "send one message, print the reply and exit")
	format := flag.String("format", formatText, "reply format for -ask: text, html or markdown")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gemini-terminal %s\n", version)
		return
	}

	if err := run(*configPath, *modelName, *ask, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, modelName, ask, format string) error {
	if ask != "" {
		if err := validateFormat(format); err != nil {
			return err
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if modelName != "" {
		cfg.Model = modelName
	}

	logDir, err := cfg.LogDir()
	if err != nil {
		return err
	}
	if err := logging.InitLogger(logging.Options{
		Dir:        logDir,
		Debug:      cfg.Log.Debug,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Options{
			Dir:        logDir,
			Version:    version,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			logging.Error("Telemetry disabled: %v", err)
		} else {
			defer shutdown()
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	repo := settings.NewRepository(store)
	defer repo.Close()

	if _, err := repo.Load(ctx); err != nil {
		return err
	}

	shape, err := conversation.ParseShape(cfg.RequestShape)
	if err != nil {
		return err
	}

	lister := gemini.NewClient(cfg.BaseURL, cfg.APIVersion, cfg.Model, cfg.RequestTimeout)
	var client transport = lister
	if cfg.Transport == config.TransportSDK {
		client = gemini.NewSDKClient(cfg.BaseURL, cfg.APIVersion, cfg.Model, cfg.RequestTimeout)
	}

	logging.Info("Starting gemini-terminal %s: model=%s transport=%s shape=%s storage=%s",
		version, cfg.Model, cfg.Transport, shape, cfg.Storage.Backend)

	sess := session.New(repo, client, shape)
	defer sess.Close()

	if ask != "" {
		return runOneShot(ctx, sess, ask, format, os.Stdout)
	}

	initialModel := model{
		state:   stateLanding,
		cfg:     cfg,
		repo:    repo,
		client:  client,
		lister:  lister,
		session: sess,
		width:   80,
		height:  24,
	}
	initialModel.landingModel = ui.NewLandingModel(repo.Current().HasAPIKey(), client.Model(), 80, 24)

	p := tea.NewProgram(initialModel, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (settings.Store, error) {
	if cfg.Storage.Backend == config.BackendKeyring {
		return settings.NewKeyringStore(), nil
	}

	dbPath, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return settings.NewBadgerStore(dbPath)
}

func (m model) Init() tea.Cmd {
	return m.landingModel.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.toast.HandleExpiry(msg) {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.toast.SetWidth(msg.Width)
		m.landingModel, _ = updateAs[ui.LandingModel](m.landingModel, msg)
		return m.delegate(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.session.Close()
			return m, tea.Quit
		}

	case ui.Notify:
		return m, m.toast.Show(msg.Title, msg.Body, msg.IsError)

	case ui.OpenChat:
		m.state = stateChat
		m.chatViewModel = ui.NewChatViewModel(m.session, m.repo, m.client.Model(), m.cfg.Renderer, m.width, m.height)
		return m, m.chatViewModel.Init()

	case ui.OpenSettings:
		m.state = stateSettings
		m.settingsModel = ui.NewSettingsModel(m.repo, m.width, m.height, false)
		return m, m.settingsModel.Init()

	case ui.OpenModelSelect:
		current := m.repo.Current()
		if !current.HasAPIKey() {
			return m, m.toast.Show("API Key Required", "Please enter your Gemini API key in settings to list models.", true)
		}
		m.state = stateModelSelect
		m.modelSelectModel = ui.NewModelSelectModel(m.client.Model(), m.width, m.height)
		return m, tea.Batch(m.modelSelectModel.Init(), m.fetchModels(current.APIKey))

	case ui.ModelChosen:
		m.client.SetModel(msg.ID)
		m.lister.SetModel(msg.ID)
		m.cfg.Model = msg.ID
		m.landingModel.SetModel(msg.ID)
		m.state = stateLanding
		if err := config.Save(m.cfg); err != nil {
			logging.Error("Failed to save model selection: %v", err)
			return m, m.toast.Show("Model Selected", "Using "+msg.ID+" for this run, but the config could not be saved.", true)
		}
		logging.Info("Model switched to %s", msg.ID)
		return m, m.toast.Show("Model Selected", "Now chatting with "+msg.ID+".", false)

	case ui.BackToLanding:
		m.state = stateLanding
		m.landingModel.SetHasAPIKey(m.repo.Current().HasAPIKey())
		return m, nil

	case ui.SettingsClosed:
		if m.state == stateSettings {
			m.state = stateLanding
			m.landingModel.SetHasAPIKey(m.repo.Current().HasAPIKey())
			return m, nil
		}

	case ui.SettingsSaved:
		if m.state == stateSettings {
			m.landingModel.SetHasAPIKey(true)
			m.settingsModel, _ = updateAs[ui.SettingsModel](m.settingsModel, msg)
			return m, m.toast.Show("Settings Saved", "Your configuration has been saved successfully.", false)
		}
	}

	return m.delegate(msg)
}

// delegate forwards msg to the current screen
func (m model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case stateLanding:
		m.landingModel, cmd = updateAs[ui.LandingModel](m.landingModel, msg)
	case stateSettings:
		m.settingsModel, cmd = updateAs[ui.SettingsModel](m.settingsModel, msg)
	case stateModelSelect:
		m.modelSelectModel, cmd = updateAs[ui.ModelSelectModel](m.modelSelectModel, msg)
	case stateChat:
		m.chatViewModel, cmd = updateAs[ui.ChatViewModel](m.chatViewModel, msg)
	}
	return m, cmd
}

// updateAs runs a screen's Update and restores its concrete type
func updateAs[T tea.Model](screen T, msg tea.Msg) (T, tea.Cmd) {
	newModel, cmd := screen.Update(msg)
	return newModel.(T), cmd
}

func (m model) fetchModels(apiKey string) tea.Cmd {
	lister := m.lister
	return func() tea.Msg {
		models, err := lister.ListModels(context.Background(), apiKey)
		if err != nil {
			logging.Error("Failed to list models: %v", err)
		}
		return ui.ModelsLoaded{Models: models, Err: err}
	}
}

func (m model) View() string {
	var view string
	switch m.state {
	case stateLanding:
		view = m.landingModel.View()
	case stateSettings:
		view = m.settingsModel.View()
	case stateModelSelect:
		view = m.modelSelectModel.View()
	case stateChat:
		view = m.chatViewModel.View()
	default:
		view = "Loading..."
	}
	return m.toast.RenderOverlay(view)
}
