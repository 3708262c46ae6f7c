package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/health"
)

func newDoctorCmd(c *cli) *cobra.Command {
	var (
		timeout time.Duration
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the configuration, session and backend",
		Long: `Run the console's health checks:

  config   the merged configuration is usable
  session  a session is stored, its token expiry, and whether the
           backend still accepts it
  api      the backend answers /api/_health
  redis    the Redis session backend answers PING (redis backend only)

Degraded checks, such as not being logged in, do not fail the command.

Examples:
  fidelidade doctor
  fidelidade doctor --offline
  fidelidade doctor -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			m := health.NewManager().WithTimeout(timeout)
			m.AddChecker(health.NewConfigChecker(cc.Config))

			shell, err := cc.Shell(ctx)
			if err != nil {
				m.AddChecker(failedCheck{name: "session", err: err})
			} else {
				if offline {
					m.AddChecker(health.NewSessionChecker(shell.Store, nil))
				} else {
					m.AddChecker(health.NewAPIChecker(shell.Client))
					m.AddChecker(health.NewSessionChecker(shell.Store, shell.Client))
				}
				if p, ok := shell.Store.(health.Pinger); ok && cc.Config.Session.Backend == auth.BackendRedis {
					m.AddChecker(health.NewRedisChecker(cc.Config.Redis.Addr, p))
				}
			}

			report := m.Run(ctx)
			cc.Logger.Debug("doctor finished", "status", report.Status.String(), "checks", m.Count())
			if err := cc.Printer.Print(report, doctorTable{report}); err != nil {
				return err
			}
			if !report.Healthy() {
				var failed []string
				for _, e := range report.Entries {
					if e.Result.Status == health.StatusUnhealthy {
						failed = append(failed, e.Name)
					}
				}
				return errors.New(errors.ErrCodeAPIRequest, "unhealthy: "+strings.Join(failed, ", ")).
					WithSuggestion("Fix the checks above and run 'fidelidade doctor' again")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", health.DefaultTimeout, "timeout for each check")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the checks that contact the backend")
	return cmd
}

// failedCheck reports a dependency that could not even be set up.
type failedCheck struct {
	name string
	err  error
}

func (f failedCheck) Name() string { return f.name }

func (f failedCheck) Check(context.Context) *health.Result {
	return health.Unhealthy("cannot open the session backend").WithDetail("error", f.err.Error())
}

type doctorTable struct {
	report *health.Report
}

func (d doctorTable) Headers() []string {
	return []string{"Check", "Status", "Message", "Details", "Latency"}
}

func (d doctorTable) Rows() [][]string {
	rows := make([][]string, 0, len(d.report.Entries))
	for _, e := range d.report.Entries {
		rows = append(rows, []string{
			e.Name,
			e.Result.Status.String(),
			e.Result.Message,
			details(e.Result.Details),
			e.Result.Latency.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func details(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}
