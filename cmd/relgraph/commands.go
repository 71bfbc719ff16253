package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/relgraph/engine/conn"
	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/events"
	"github.com/WessleyAI/relgraph/engine/graphsync"
	"github.com/WessleyAI/relgraph/engine/relation"
	"github.com/WessleyAI/relgraph/engine/session"
	"github.com/WessleyAI/relgraph/engine/taxonomy"
	"github.com/WessleyAI/relgraph/pkg/config"
	"github.com/WessleyAI/relgraph/pkg/credentials"
	"github.com/WessleyAI/relgraph/pkg/fn"
)

// app carries what every command needs once flags and config are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	logger *slog.Logger
	creds  *credentials.FileStore
	dialer conn.Dialer

	uri, user, password string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return (&app{out: out, errOut: errOut}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relgraph",
		Short:         "Create typed nodes and relations in Neo4j from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.LogLevel}))
			a.creds = credentials.NewFileStore(cfg.CredentialsPath)
			if a.dialer == nil {
				a.dialer = conn.Neo4jDialer{Database: cfg.Neo4jDatabase}
			}
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	pf := root.PersistentFlags()
	pf.StringVar(&a.uri, "uri", "", "Neo4j URI (default: saved credentials, then NEO4J_URL)")
	pf.StringVar(&a.user, "user", "", "Neo4j user")
	pf.StringVar(&a.password, "password", "", "Neo4j password")

	root.AddCommand(a.loginCmd(), a.logoutCmd(), a.taxonomyCmd(), a.relateCmd())
	return root
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify a connection and save its credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.resolveCredentials()
			if err != nil {
				return err
			}
			_, rep, closeFn, err := a.open(cmd.Context(), creds)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := a.creds.Save(creds); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "connected to %s: %d node types, %d edge types\n", creds.URI, rep.NodeTypes, rep.EdgeTypes)
			fmt.Fprintf(a.out, "credentials saved to %s\n", a.creds.Path())
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.creds.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "credentials removed")
			return nil
		},
	}
}

func (a *app) taxonomyCmd() *cobra.Command {
	var asJSON, offline bool
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print known node and edge types with their values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap taxonomy.Snapshot
			if offline {
				seed, err := taxonomy.LoadSeedFile(a.cfg.SeedFile)
				if err != nil {
					return err
				}
				snap = taxonomy.Snapshot{Nodes: seed.Nodes, Edges: seed.Edges}
			} else {
				creds, err := a.resolveCredentials()
				if err != nil {
					return err
				}
				sess, rep, closeFn, err := a.open(cmd.Context(), creds)
				if err != nil {
					return err
				}
				defer closeFn()
				for _, w := range rep.Warnings {
					fmt.Fprintf(a.errOut, "warning: %s %s: %s\n", w.Kind, w.Type, w.Err)
				}
				snap = sess.Taxonomy().Snapshot()
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			printEntries(a.out, "nodes", snap.Nodes)
			printEntries(a.out, "edges", snap.Edges)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Print the seed taxonomy without connecting")
	return cmd
}

func printEntries(w io.Writer, title string, entries []taxonomy.Entry) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s: %s\n", e.Type, strings.Join(e.Values, ", "))
	}
}

type relateFlags struct {
	fromType, edgeType, toType string
	from, labels, to           []string
	bulk, dryRun               bool
}

func (a *app) relateCmd() *cobra.Command {
	var f relateFlags
	cmd := &cobra.Command{
		Use:   "relate",
		Short: "Create relations from every --from value to every --to value",
		Example: `  relgraph relate --from-type Person --from Alice --from Bob \
    --edge-type Friendship --label "Close Friend" \
    --to-type Location --to Paris`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRelate(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.fromType, "from-type", "", "Source node type")
	fl.StringArrayVar(&f.from, "from", nil, "Source node value (repeatable)")
	fl.StringVar(&f.edgeType, "edge-type", "", "Relationship type")
	fl.StringArrayVar(&f.labels, "label", nil, "Relationship label (repeatable)")
	fl.StringVar(&f.toType, "to-type", "", "Target node type")
	fl.StringArrayVar(&f.to, "to", nil, "Target node value (repeatable)")
	fl.BoolVar(&f.bulk, "bulk", false, "Bulk mode; implied when any slot has several values")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print the relations without writing them")
	for _, name := range []string{"from-type", "from", "edge-type", "label", "to-type", "to"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) runRelate(ctx context.Context, f relateFlags) error {
	creds, err := a.resolveCredentials()
	if err != nil && !f.dryRun {
		return err
	}

	var sess *session.Session
	if f.dryRun && err != nil {
		sess = a.newSession(nil)
	} else {
		var closeFn func()
		if sess, _, closeFn, err = a.open(ctx, creds); err != nil {
			return err
		}
		defer closeFn()
	}

	if f.bulk || len(f.from) > 1 || len(f.labels) > 1 || len(f.to) > 1 {
		sess.SetMode(domain.ModeBulk)
	}
	for _, s := range []struct {
		slot   domain.Slot
		typ    string
		values []string
	}{
		{domain.SlotNodeA, f.fromType, f.from},
		{domain.SlotEdge, f.edgeType, f.labels},
		{domain.SlotNodeB, f.toType, f.to},
	} {
		if _, err := sess.CreateTypes(s.slot, s.typ); err != nil {
			return err
		}
		if _, err := sess.CreateValues(s.slot, strings.Join(s.values, "\n")); err != nil {
			return err
		}
	}

	triples, err := sess.Preview()
	if err != nil {
		return err
	}
	for _, line := range fn.Map(triples, relation.Triple.String) {
		fmt.Fprintln(a.out, line)
	}
	if f.dryRun {
		fmt.Fprintf(a.out, "%d relations (dry run)\n", len(triples))
		return nil
	}

	res, err := sess.Submit(ctx)
	fmt.Fprintln(a.out, res.Summary())
	if res.RefreshErr != nil {
		fmt.Fprintf(a.errOut, "warning: taxonomy refresh failed: %v\n", res.RefreshErr)
	}
	return err
}

// resolveCredentials picks flags, then saved credentials, then the
// environment. A saved or environment secret is only used for its own URI.
func (a *app) resolveCredentials() (credentials.Credentials, error) {
	saved, _, err := a.creds.Load()
	if err != nil {
		a.logger.Warn("read saved credentials", "err", err)
	}
	env := credentials.Credentials{URI: a.cfg.Neo4jURL, User: a.cfg.Neo4jUser, Password: a.cfg.Neo4jPass}
	base := saved
	if base.URI == "" || (a.uri != "" && a.uri != base.URI && a.uri == env.URI) {
		base = env
	}
	c := credentials.Fill(credentials.Credentials{URI: a.uri, User: a.user, Password: a.password}, base)
	if c.URI == "" {
		return c, errors.New("no connection configured: pass --uri, set NEO4J_URL or run relgraph login")
	}
	return c, nil
}

func (a *app) newSession(opts []graphsync.Option) *session.Session {
	opts = append([]graphsync.Option{graphsync.WithLogger(a.logger)}, opts...)
	if a.cfg.WriteRate > 0 {
		opts = append(opts, graphsync.WithWriteLimiter(rate.NewLimiter(rate.Limit(a.cfg.WriteRate), max(1, int(a.cfg.WriteRate)))))
	}
	engine := graphsync.New(taxonomy.NewCache(), opts...)
	lc := conn.New(a.dialer, a.logger)
	return session.New(lc, engine, a.logger)
}

// open connects a fresh session with retries and pulls the taxonomy. On
// success the caller must call the returned func to close the store and
// flush pending events.
func (a *app) open(ctx context.Context, creds credentials.Credentials) (*session.Session, graphsync.PullReport, func(), error) {
	var opts []graphsync.Option
	var nc *nats.Conn
	if a.cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(a.cfg.NATSURL, nats.Name("relgraph-cli"))
		if err != nil {
			return nil, graphsync.PullReport{}, nil, fmt.Errorf("nats connect: %w", err)
		}
		opts = append(opts, graphsync.WithNotifier(events.NewNATSNotifier(nc, a.cfg.NATSSubject, a.logger)))
	}
	sess := a.newSession(opts)
	closeFn := func() {
		if err := sess.Disconnect(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("disconnect", "err", err)
		}
		if nc != nil {
			if err := nc.FlushTimeout(5 * time.Second); err != nil {
				a.logger.Warn("nats flush", "err", err)
			}
			nc.Close()
		}
	}

	retry := fn.DefaultRetry
	retry.MaxAttempts = a.cfg.ConnectRetries
	retry.Retryable = func(err error) bool { return errors.Is(err, domain.ErrConnectivity) }
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		a.logger.Warn("connect failed, retrying", "attempt", attempt, "retry_in", wait, "err", err)
	}
	res := fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[graphsync.PullReport] {
		rep, err := sess.Connect(ctx, conn.Credentials{URI: creds.URI, User: creds.User, Password: creds.Password})
		return fn.FromPair(rep, err)
	})
	rep, err := res.Unwrap()
	if err != nil {
		closeFn()
		return nil, rep, nil, err
	}
	return sess, rep, closeFn, nil
}
