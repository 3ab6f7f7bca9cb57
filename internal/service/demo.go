package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deppfellow/crud-demo/internal/errs"
	"github.com/deppfellow/crud-demo/internal/lib/utils"
	"github.com/deppfellow/crud-demo/internal/model"
	"github.com/deppfellow/crud-demo/internal/repository"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// UserStore is the storage the demonstrations run against.
// *repository.UserRepository satisfies it.
type UserStore interface {
	CreateMany(ctx context.Context, params []repository.CreateUserParams, skipDuplicates bool) (int64, error)
	CreateWithRelations(ctx context.Context, params repository.CreateUserWithRelationsParams) (*model.User, error)
	FindUnique(ctx context.Context, where repository.UserWhereUnique, include repository.UserInclude) (*model.User, error)
	FindMany(ctx context.Context, filter repository.UserFilter, include repository.UserInclude) ([]model.User, error)
	Update(ctx context.Context, where repository.UserWhereUnique, data repository.UpdateUserParams) (*model.User, error)
	UpdateMany(ctx context.Context, filter repository.UserFilter, data repository.UpdateUserParams) (int64, error)
	UpdateManyAndReturn(ctx context.Context, filter repository.UserFilter, data repository.UpdateUserParams) ([]model.User, error)
}

const (
	startBanner  = "🚀 Starting CRUD examples..."
	finishBanner = "✅ CRUD examples finished."
)

// demo is one named demonstration.
type demo struct {
	name  string
	title string
	run   func(s *DemoService, ctx context.Context) error
}

// catalogue lists every demonstration in its canonical order.
var catalogue = []demo{
	{name: "seed_database", title: "Seeding Database", run: (*DemoService).seedDatabase},
	{name: "create_user_with_relations", title: "Creating a User with Relations", run: (*DemoService).createUserWithRelations},
	{name: "find_unique_user", title: "Finding a Unique User", run: (*DemoService).findUniqueUser},
	{name: "find_all_users", title: "Finding All Users", run: (*DemoService).findAllUsers},
	{name: "update_user", title: "Updating a Single User", run: (*DemoService).updateUser},
	{name: "update_many_users", title: "Updating Many Users", run: (*DemoService).updateManyUsers},
	{name: "update_many_and_return_users", title: "Updating Many and Returning Them", run: (*DemoService).updateManyAndReturnUsers},
}

// DemoNames returns the names of all demonstrations in canonical order.
func DemoNames() []string {
	names := make([]string, 0, len(catalogue))
	for _, d := range catalogue {
		names = append(names, d.name)
	}
	return names
}

func lookup(name string) (demo, bool) {
	for _, d := range catalogue {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}

// DemoService runs demonstrations against a UserStore and prints their
// results to out. Logs go to the logger, never to out.
type DemoService struct {
	users  UserStore
	out    io.Writer
	logger *zerolog.Logger
	nrApp  *newrelic.Application
}

// NewDemoService wires a DemoService. nrApp may be nil.
func NewDemoService(users UserStore, out io.Writer, logger *zerolog.Logger, nrApp *newrelic.Application) *DemoService {
	return &DemoService{
		users:  users,
		out:    out,
		logger: logger,
		nrApp:  nrApp,
	}
}

// Run executes the named demonstrations one after another.
//
// Unknown names are rejected before anything runs. The first failure stops
// the run and is returned wrapped with the demonstration's name; the
// finish banner is printed only when every demonstration succeeded.
func (s *DemoService) Run(ctx context.Context, names []string) error {
	selected := make([]demo, 0, len(names))
	var unknown []string
	for _, name := range names {
		d, ok := lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, d)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown demonstration(s) %s, available: %s",
			strings.Join(unknown, ", "), strings.Join(DemoNames(), ", "))
	}

	s.println(startBanner)

	for _, d := range selected {
		if err := s.runOne(ctx, d); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}

	s.println(finishBanner)
	return nil
}

// runOne runs d inside its own New Relic transaction, when New Relic is
// enabled, and logs its outcome.
func (s *DemoService) runOne(ctx context.Context, d demo) error {
	logger := s.logger.With().Str("demonstration", d.name).Logger()

	var txn *newrelic.Transaction
	if s.nrApp != nil {
		txn = s.nrApp.StartTransaction("demo/" + d.name)
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Debug().Msg("running demonstration")

	fmt.Fprintf(s.out, "\n--- %s ---\n", d.title)

	start := time.Now()
	err := d.run(s, ctx)
	duration := time.Since(start)

	if err != nil {
		kind := errs.KindOf(err)

		// Rejected input and missing or clashing rows are outcomes of the
		// data, not faults of the program.
		event := logger.Error()
		if kind != errs.KindInternal {
			event = logger.Warn()
		}
		event.
			Err(err).
			Str("error_kind", string(kind)).
			Dur("duration", duration).
			Msg("demonstration failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("demo.status", "error")
			txn.AddAttribute("demo.error_kind", string(kind))
			txn.AddAttribute("demo.duration_ms", duration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("demo.status", "success")
		txn.AddAttribute("demo.duration_ms", duration.Milliseconds())
	}

	logger.Info().
		Dur("duration", duration).
		Msg("demonstration finished")
	return nil
}

func (s *DemoService) println(line string) {
	fmt.Fprintln(s.out, line)
}

// printResult prints a label line followed by v as indented JSON.
func (s *DemoService) printResult(label string, v any) error {
	s.println(label)
	return utils.PrintJSON(s.out, v)
}

func ptr[T any](v T) *T { return &v }

// seedDatabase bulk-inserts the three sample users, skipping any whose
// email already exists, so it can run repeatedly.
func (s *DemoService) seedDatabase(ctx context.Context) error {
	count, err := s.users.CreateMany(ctx, []repository.CreateUserParams{
		{Name: "Alice", Email: "alice@prisma.io"},
		{Name: "Bob", Email: "bob@prisma.io"},
		{Name: "Charlie", Email: "charlie@prisma.io"},
	}, true)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Created %d users.\n", count)
	return nil
}

func (s *DemoService) createUserWithRelations(ctx context.Context) error {
	user, err := s.users.CreateWithRelations(ctx, repository.CreateUserWithRelationsParams{
		Name:  "Taimiyah",
		Email: "taimiyah@prisma.io",
		Posts: []repository.CreatePostParams{
			{Title: "Follow me on Twitter!"},
		},
		Profile: &repository.CreateProfileParams{Bio: ptr("I love building things.")},
	})
	if err != nil {
		return err
	}

	return s.printResult("Created user with relations:", user)
}

func (s *DemoService) findUniqueUser(ctx context.Context) error {
	user, err := s.users.FindUnique(ctx, repository.UserWhereUnique{Email: "alice@prisma.io"}, repository.UserInclude{})
	if err != nil {
		return err
	}

	return s.printResult("Found unique user:", user)
}

func (s *DemoService) findAllUsers(ctx context.Context) error {
	users, err := s.users.FindMany(ctx,
		repository.UserFilter{EmailEndsWith: "@prisma.io"},
		repository.UserInclude{Posts: true},
	)
	if err != nil {
		return err
	}

	return s.printResult("Found all users:", users)
}

func (s *DemoService) updateUser(ctx context.Context) error {
	user, err := s.users.Update(ctx,
		repository.UserWhereUnique{Email: "bob@prisma.io"},
		repository.UpdateUserParams{Name: ptr("Bobby")},
	)
	if err != nil {
		return err
	}

	return s.printResult("Updated user:", user)
}

// updateManyUsers only gets a count back, so it fetches the renamed users
// with a second query.
func (s *DemoService) updateManyUsers(ctx context.Context) error {
	count, err := s.users.UpdateMany(ctx,
		repository.UserFilter{EmailEndsWith: "@prisma.io"},
		repository.UpdateUserParams{Name: ptr("Prisma User")},
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Updated %d users.\n", count)

	users, err := s.users.FindMany(ctx, repository.UserFilter{Name: "Prisma User"}, repository.UserInclude{})
	if err != nil {
		return err
	}

	return s.printResult("Fetched the updated users:", users)
}

func (s *DemoService) updateManyAndReturnUsers(ctx context.Context) error {
	users, err := s.users.UpdateManyAndReturn(ctx,
		repository.UserFilter{Name: "Prisma User"},
		repository.UpdateUserParams{Name: ptr("Returned Prisma User")},
	)
	if err != nil {
		return err
	}

	if err := s.printResult("Updated and returned users:", users); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Returned %d records.\n", len(users))
	return nil
}
