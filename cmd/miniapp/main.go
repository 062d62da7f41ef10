package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/client"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/config"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	app, err := newApp(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	ctx := context.Background()
	if err := app.manager.Start(ctx); err != nil {
		fmt.Printf("Error: failed to restore session: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "login":
		err = loginCmd(ctx, app, args)
	case "status":
		statusCmd(app)
	case "me":
		err = meCmd(ctx, app)
	case "sync":
		err = syncCmd(ctx, app, args)
	case "import":
		err = importCmd(ctx, app, args)
	case "import-birthdays":
		err = importBirthdaysCmd(ctx, app, args)
	case "telegram-contacts":
		err = telegramContactsCmd(ctx, app)
	case "search":
		err = searchCmd(ctx, app, args)
	case "logout":
		app.manager.Logout(ctx)
		fmt.Println("Logged out")
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		app.close()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		app.close()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Mini-App client - drives the reminder mini-app API from a terminal

USAGE:
  miniapp <command> [options]

COMMANDS:
  login              Authenticate with Telegram WebApp init data
  status             Show the cached session
  me                 Fetch the current user
  sync               Reconcile contacts from a JSON file by phone/email
  import             Bulk-create contacts from a JSON file
  import-birthdays   Create birthday reminders from a JSON file
  telegram-contacts  Import contacts from Telegram
  search             Search contacts by name, phone or email
  logout             End the session
  help               Show this help message

ENVIRONMENT:
  API_URL                  Backend API URL (default: http://localhost:8080)
  MINIAPP_STATE_DIR        Session state directory (default: .miniapp)
  MINIAPP_SESSION_TIMEOUT  Inactivity timeout (default: 30m)

EXAMPLES:
  # Log in with init data copied from the Telegram WebApp
  miniapp login --init-data="query_id=...&user=...&auth_date=...&hash=..."

  # Sync device contacts exported as [{"name":["Anna"],"tel":["+7999..."]}]
  miniapp sync --file=contacts.json

  # Find a contact
  miniapp search anna`)
}

type app struct {
	manager *client.Manager
	closed  bool
}

func newApp(cfg *config.ClientConfig) (*app, error) {
	storage, err := client.OpenBadgerStorage(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	manager := client.NewManager(storage, client.Options{
		BaseURL:        cfg.APIURL,
		RequestTimeout: cfg.RequestTimeout,
		SessionTimeout: cfg.SessionTimeout,
		SweepInterval:  cfg.SweepInterval,
		Navigator:      &terminalNavigator{},
		Notifier:       &terminalNotifier{},
	})
	return &app{manager: manager}, nil
}

func (a *app) close() {
	if a.closed {
		return
	}
	a.closed = true
	if err := a.manager.Close(); err != nil {
		fmt.Printf("Warning: failed to close session state: %v\n", err)
	}
}

// requireSession fails fast instead of sending a request that can only 401.
func (a *app) requireSession() error {
	if a.manager.CheckSession() {
		return nil
	}
	if a.manager.Store().User() != nil {
		a.manager.Logout(context.Background())
		fmt.Println(client.SessionExpiredNotice)
	}
	return client.ErrNotAuthenticated
}

type terminalNavigator struct{}

func (terminalNavigator) OnLoginView() bool { return false }

func (terminalNavigator) ToLogin() {
	fmt.Println("Run `miniapp login --init-data=...` to sign in again.")
}

func (terminalNavigator) ShowBlockingNotice(msg string) {
	fmt.Println(msg)
}

type terminalNotifier struct{}

func (terminalNotifier) Notify(err *client.APIError) {
	fmt.Printf("! %s\n", err.DisplayMessage)
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	initData := fs.String("init-data", os.Getenv("TELEGRAM_INIT_DATA"), "Telegram WebApp init data")
	fs.Parse(args)

	if *initData == "" {
		return fmt.Errorf("--init-data is required")
	}

	fmt.Print("Authenticating... ")
	user, err := a.manager.Authenticate(ctx, *initData)
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Printf("OK (user: %s, telegram id: %d)\n", displayName(user.FirstName, user.LastName), user.TelegramID)
	return nil
}

func statusCmd(a *app) {
	user := a.manager.Store().User()
	session := a.manager.Store().Session()
	if user == nil || session == nil {
		fmt.Println("Not logged in")
		return
	}

	state := "active"
	if a.manager.IsExpired() {
		state = "expired"
	}
	prefs := a.manager.Store().Preferences()

	fmt.Printf("User:          %s (%d)\n", displayName(user.FirstName, user.LastName), user.TelegramID)
	fmt.Printf("Session:       %s\n", state)
	fmt.Printf("Last activity: %s\n", session.LastActivity.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Preferences:   theme=%s language=%s notify=%s\n", prefs.Theme, prefs.Language, prefs.NotificationTime)
}

func meCmd(ctx context.Context, a *app) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	user, err := a.manager.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(user)
}

func syncCmd(ctx context.Context, a *app, args []string) error {
	contacts, err := readContactsFlag("sync", args)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	fmt.Printf("Syncing %d contacts... ", len(contacts))
	synced, err := a.manager.SyncContacts(ctx, contacts)
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Printf("OK (%d stored)\n", len(synced))
	for _, c := range synced {
		fmt.Printf("  %s  %s  %s\n", c.ID, c.Name, strings.Join(c.Phones, ", "))
	}
	return nil
}

func importCmd(ctx context.Context, a *app, args []string) error {
	contacts, err := readContactsFlag("import", args)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	imported, err := a.manager.ImportContacts(ctx, contacts)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d contacts\n", len(imported))
	return nil
}

func importBirthdaysCmd(ctx context.Context, a *app, args []string) error {
	contacts, err := readContactsFlag("import-birthdays", args)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	reminders, err := a.manager.ImportBirthdays(ctx, contacts)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d birthday reminders\n", len(reminders))
	for _, r := range reminders {
		fmt.Printf("  %02d.%02d  %s\n", r.Day, r.Month, r.Title)
	}
	return nil
}

func telegramContactsCmd(ctx context.Context, a *app) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	contacts, err := a.manager.TelegramContacts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d Telegram contacts\n", len(contacts))
	for _, c := range contacts {
		fmt.Printf("  %s  %s\n", c.ID, c.Name)
	}
	return nil
}

func searchCmd(ctx context.Context, a *app, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("search needs a query")
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	contacts, err := a.manager.SearchContacts(ctx, query)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts found")
		return nil
	}
	for _, c := range contacts {
		fmt.Printf("  %s  %s  %s  %s\n", c.ID, c.Name, strings.Join(c.Phones, ", "), strings.Join(c.Emails, ", "))
	}
	return nil
}

func readContactsFlag(name string, args []string) ([]client.ContactSnapshot, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	path := fs.String("file", "", "JSON file with an array of contacts")
	fs.Parse(args)

	if *path == "" {
		return nil, fmt.Errorf("--file is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return nil, err
	}
	var contacts []client.ContactSnapshot
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", *path, err)
	}
	return contacts, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
