// Command rb is a terminal client for the rubrica address book.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/and161185/rubrica/internal/config"
	"github.com/and161185/rubrica/internal/editor"
	"github.com/and161185/rubrica/internal/listing"
	"github.com/and161185/rubrica/internal/logger"
	"github.com/and161185/rubrica/internal/model"
	"github.com/and161185/rubrica/internal/nav"
	"github.com/and161185/rubrica/internal/store"
	"github.com/and161185/rubrica/internal/usersapi"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const usageText = `rb CLI
Usage:
  rb [-api URL] [-locale TAG] [-json] <cmd> [args]

Commands:
  version
  list    [-filter-by col -filter text] [-sort col -order asc|desc] [-highlight id|email]
  show    -id <id>
  add     -name .. -surname .. -email .. [-address .. -location .. -municipality .. -province .. -notes ..]
  edit    -id <id> [field flags as for add]
  rm      -id <id> [-yes]
  open    <route>                                  (/homepage?highlight=.., /register, /register/<id>)
  browse  [-highlight id|email]                    (interactive listing)
`

// errUsage is returned after flag has already reported the problem.
var errUsage = usageError("")

// viewError carries a message a view already rendered for the user.
type viewError string

func (e viewError) Error() string { return string(e) }

type app struct {
	cfg    *config.Client
	locale language.Tag
	log    *zap.Logger
	st     *store.UserStore
	json   bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// main dispatches subcommands against the users backend.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one rb invocation and returns its exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	// flags override env
	gf := flag.NewFlagSet("rb", flag.ContinueOnError)
	gf.SetOutput(errOut)
	gf.Usage = func() { fmt.Fprint(errOut, usageText) }
	gf.StringVar(&cfg.APIURL, "api", cfg.APIURL, "backend base URL")
	gf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	gf.StringVar(&cfg.Locale, "locale", cfg.Locale, "collation locale")
	gf.DurationVar(&cfg.ScrollDelay, "scroll-delay", cfg.ScrollDelay, "delay before scrolling to the highlighted row")
	gf.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "rows per page in browse")
	asJSON := gf.Bool("json", false, "print JSON instead of tables")
	if err := gf.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if gf.NArg() < 1 {
		gf.Usage()
		return 2
	}

	tag, err := cfg.Language()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if cfg.PageSize <= 0 {
		fmt.Fprintln(errOut, "page size must be positive")
		return 2
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	api := usersapi.New(cfg.APIURL, usersapi.WithLogger(log))
	a := &app{
		cfg:    cfg,
		locale: tag,
		log:    log,
		st:     store.New(api, log),
		json:   *asJSON,
		in:     in,
		out:    out,
		errOut: errOut,
	}

	err = a.dispatch(ctx, gf.Arg(0), gf.Args()[1:])
	if err == nil {
		return 0
	}
	describeError(errOut, err)
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Fprintf(a.out, "rb %s (%s)\n", version, buildDate)
		return nil
	case "list":
		return a.list(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "add":
		return a.add(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "rm":
		return a.rm(ctx, args)
	case "open":
		if len(args) != 1 {
			return usageError("open needs exactly one route")
		}
		return a.open(ctx, args[0])
	case "browse":
		return a.browse(ctx, args)
	default:
		fmt.Fprint(a.errOut, usageText)
		return usageError(fmt.Sprintf("unknown command %q", cmd))
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func (a *app) newView(ctx context.Context, src listing.Source, opts ...listing.Option) *listing.View {
	opts = append([]listing.Option{
		listing.WithLogger(a.log),
		listing.WithLocale(a.locale),
		listing.WithScrollDelay(a.cfg.ScrollDelay),
	}, opts...)
	return listing.NewView(ctx, src, opts...)
}

// activate starts v and waits for its first load to finish.
func activate(ctx context.Context, v *listing.View, p listing.Params) error {
	changed := make(chan struct{}, 1)
	off := v.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer off()

	v.Activate(p)
	for v.Loading() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
	if msg := v.Err(); msg != "" {
		return viewError(msg)
	}
	return nil
}

func (a *app) printRows(v *listing.View, rows []model.User) error {
	if a.json {
		printJSON(a.out, rows)
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "no users")
		return nil
	}
	return renderTable(a.out, v, rows)
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flags("list")
	by := fs.String("filter-by", "", "column to filter: name, surname, email, municipality")
	text := fs.String("filter", "", "filter text, matched ignoring case")
	sortBy := fs.String("sort", "", "column to sort by")
	order := fs.String("order", "asc", "sort order: asc or desc")
	hl := fs.String("highlight", "", "id or email of the row to mark")
	if err := parse(fs, args); err != nil {
		return err
	}

	filterField, err := listing.ParseField(*by)
	if err != nil {
		return usageError(err.Error())
	}
	sortField, err := listing.ParseField(*sortBy)
	if err != nil {
		return usageError(err.Error())
	}
	o, err := listing.ParseOrder(*order)
	if err != nil {
		return usageError(err.Error())
	}
	return a.showListing(ctx, listing.Filter{Field: filterField, Value: *text}, listing.NewSort(sortField, o), *hl)
}

func (a *app) showListing(ctx context.Context, f listing.Filter, s listing.Sort, highlight string) error {
	v := a.newView(ctx, a.st)
	defer v.Close()
	v.SetFilterField(f.Field)
	v.SetFilterValue(f.Value)
	v.SetSort(s)
	if err := activate(ctx, v, listing.Params{Highlight: highlight}); err != nil {
		return err
	}
	return a.printRows(v, v.Rows())
}

func idFlag(fs *flag.FlagSet) *int64 { return fs.Int64("id", 0, "user id") }

func requireID(id int64) error {
	if id <= 0 {
		return usageError("need -id")
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := a.flags("show")
	id := idFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}
	u, err := a.st.FetchByID(*id).Run(ctx)
	if err != nil {
		return err
	}
	if a.json {
		printJSON(a.out, u)
		return nil
	}
	return renderUser(a.out, u)
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flags("add")
	var d model.UserDraft
	bindDraft(fs, &d)
	if err := parse(fs, args); err != nil {
		return err
	}
	return a.submit(ctx, 0, func(model.UserDraft) model.UserDraft { return d })
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := a.flags("edit")
	id := idFlag(fs)
	var set model.UserDraft
	bindDraft(fs, &set)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}
	return a.submit(ctx, *id, func(loaded model.UserDraft) model.UserDraft {
		overlaySet(fs, &loaded, set)
		return loaded
	})
}

// submit runs the editor for userID, builds the draft from the loaded one
// and follows the redirect to the listing.
func (a *app) submit(ctx context.Context, userID int64, build func(model.UserDraft) model.UserDraft) error {
	e := editor.New(ctx, a.st, userID, a.log)
	defer e.Close()
	if err := e.Load(); err != nil {
		return err
	}
	redirect, err := e.Submit(build(e.Draft()))
	if err != nil {
		return err
	}
	return a.open(ctx, redirect)
}

func (a *app) rm(ctx context.Context, args []string) error {
	fs := a.flags("rm")
	id := idFlag(fs)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}

	var confirmer listing.Confirmer = listing.ConfirmFunc(func(context.Context, string) bool { return true })
	if !*yes {
		confirmer = lineConfirmer{out: a.out, lines: readLines(ctx, a.in)}
	}
	v := a.newView(ctx, a.st, listing.WithConfirmer(confirmer))
	defer v.Close()
	if err := activate(ctx, v, listing.Params{}); err != nil {
		return err
	}
	confirmed, err := v.Delete(*id)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	fmt.Fprintf(a.out, "deleted user %d\n", *id)
	return nil
}

// open shows the screen of a front-end route.
func (a *app) open(ctx context.Context, raw string) error {
	r := nav.Parse(raw)
	switch r.Kind {
	case nav.KindHome:
		return a.showListing(ctx, listing.Filter{}, listing.Sort{}, r.Highlight)
	case nav.KindRegister:
		e := editor.New(ctx, a.st, r.UserID, a.log)
		defer e.Close()
		if err := e.Load(); err != nil {
			return err
		}
		if a.json {
			printJSON(a.out, e.Draft())
			return nil
		}
		title := "new user"
		if e.Mode() == editor.ModeEdit {
			title = "edit user " + strconv.FormatInt(e.UserID(), 10)
		}
		fmt.Fprintln(a.out, title)
		return renderUser(a.out, e.Draft().WithID(0))
	default:
		return viewError(fmt.Sprintf("page not found: %s", raw))
	}
}
