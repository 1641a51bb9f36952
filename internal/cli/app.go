// Package cli is the terminal front end of the reimbursement client. Each
// command corresponds to one screen of the web client and goes through the
// access guard before it runs.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/pkg/apiclient"
	"github.com/expenseflow/reimbursement/pkg/auth"
	"github.com/expenseflow/reimbursement/pkg/guard"
	"github.com/expenseflow/reimbursement/pkg/reimbursement"
	"github.com/expenseflow/reimbursement/pkg/route"
	"github.com/expenseflow/reimbursement/pkg/session"
	"github.com/expenseflow/reimbursement/pkg/useradmin"
)

// Exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const genericFailure = "Something went wrong"

// Config wires an App. Store and APIURL are required.
type Config struct {
	APIURL     string
	Store      session.Store
	HTTPClient *http.Client
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	Logger     zerolog.Logger
}

// App holds the client services shared by all commands.
type App struct {
	auth           *auth.Manager
	reimbursements *reimbursement.Client
	users          *useradmin.Client

	in  *bufio.Reader
	out io.Writer
	err io.Writer
	log zerolog.Logger

	mu        sync.Mutex
	navigated route.Path

	commands map[string]*command
}

type command struct {
	name  string
	usage string
	// route is the screen the command renders; the guard runs against it.
	// Commands with an id argument compute the concrete path in target.
	route  route.Path
	target func(args []string) string
	run    func(ctx context.Context, args []string) error
}

var (
	// errUsage marks argument errors; the message has already been printed.
	errUsage = errors.New("usage")
	// errRedirected means the command showed another screen instead.
	errRedirected = errors.New("redirected")
)

func New(cfg Config) *App {
	a := &App{
		in:  bufio.NewReader(orEmpty(cfg.In)),
		out: orDiscard(cfg.Out),
		err: orDiscard(cfg.Err),
		log: cfg.Logger,
	}

	opts := []apiclient.Option{
		apiclient.WithLogger(cfg.Logger),
		apiclient.WithNavigator(apiclient.NavigatorFunc(a.navigate)),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(cfg.HTTPClient))
	}
	api := apiclient.New(cfg.APIURL, cfg.Store, opts...)

	a.auth = auth.NewManager(api, auth.WithLogger(cfg.Logger))
	a.reimbursements = reimbursement.New(api)
	a.users = useradmin.New(api)
	a.commands = a.commandTable()
	return a
}

// Run executes one command line and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("command panicked")
			fmt.Fprintln(a.err, genericFailure)
			code = ExitError
		}
	}()

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage(a.out)
		return ExitOK
	}
	cmd, ok := a.commands[args[0]]
	if !ok {
		fmt.Fprintf(a.err, "unknown command %q\n\n", args[0])
		a.usage(a.err)
		return ExitUsage
	}

	if err := a.auth.Init(ctx); err != nil {
		a.log.Warn().Err(err).Msg("discarding unreadable session")
	}

	rest := args[1:]
	target := string(cmd.route)
	if cmd.target != nil {
		target = cmd.target(rest)
	}

	switch d := guard.ForRoute(a.auth.State(), target); d.Outcome {
	case guard.Pending:
		fmt.Fprintln(a.err, "Loading...")
		return ExitError
	case guard.RedirectLogin:
		fmt.Fprintln(a.err, "You are not logged in. Run `reimburse login` first.")
		return ExitError
	case guard.RedirectDashboard:
		if cmd.route == route.Login || cmd.route == route.Register {
			fmt.Fprintln(a.err, "You are already logged in.")
		} else {
			fmt.Fprintln(a.err, "You do not have access to that page.")
		}
		if err := a.showDashboard(ctx); err != nil {
			return a.fail(err)
		}
		return ExitError
	}

	err := cmd.run(ctx, rest)
	if a.takeNavigation() == route.Login && cmd.route != route.Login {
		fmt.Fprintln(a.err, "Your session has ended. Run `reimburse login` to continue.")
	}
	if err != nil {
		return a.fail(err)
	}
	return ExitOK
}

func (a *App) fail(err error) int {
	switch {
	case errors.Is(err, errUsage):
		return ExitUsage
	case errors.Is(err, errRedirected):
		return ExitError
	case errors.Is(err, flag.ErrHelp):
		return ExitOK
	}
	fmt.Fprintf(a.err, "Error: %s\n", err)
	return ExitError
}

func (a *App) navigate(to route.Path) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.navigated = to
}

func (a *App) takeNavigation() route.Path {
	a.mu.Lock()
	defer a.mu.Unlock()
	to := a.navigated
	a.navigated = ""
	return to
}

func (a *App) usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: reimburse <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, a.commands[name].usage)
	}
}

// flags returns a flag set that reports errors to the app's error stream.
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.err)
	return fs
}

// parse parses args, allowing one leading positional id before the flags.
func (a *App) parse(fs *flag.FlagSet, args []string, wantID bool) (string, error) {
	var id string
	if wantID {
		id, args = splitID(args)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", err
		}
		return "", errUsage
	}
	if wantID && id == "" {
		id = fs.Arg(0)
	}
	if wantID && id == "" {
		fmt.Fprintf(a.err, "%s: missing id\n", fs.Name())
		return "", errUsage
	}
	return id, nil
}

func splitID(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

// prompt prints question and reads one line of input.
func (a *App) prompt(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func orEmpty(r io.Reader) io.Reader {
	if r == nil {
		return strings.NewReader("")
	}
	return r
}
