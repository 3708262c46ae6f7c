package cmd

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/app"
	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/config"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/log"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/tui"
	"github.com/casadocigano/fidelidade/internal/ux"
	"github.com/casadocigano/fidelidade/internal/version"
)

// CommandContext holds everything a command needs once flags are parsed:
// - the merged configuration
// - the printer for the selected output format
// - the prompter used for values missing from flags
// The session store and API client are built on first use, so commands
// such as version or config never touch the session backend.
type CommandContext struct {
	Config   *config.Config
	Printer  *ux.Printer
	Prompter tui.Prompter
	Logger   *log.Logger
	In       io.Reader
	Out      io.Writer

	logOutput log.Output
	store     auth.Store
	shell     *app.Shell
}

func newCommandContext(cmd *cobra.Command, cfg *config.Config, prompter tui.Prompter, interactive bool) (*CommandContext, error) {
	printer, err := ux.NewPrinter(cfg.Defaults.Format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInputInvalid, "invalid --format", err)
	}

	lc := cfg.LogConfig(interactive)
	lc.ServiceVersion = version.Version
	logger := log.New(lc)
	log.SetDefaultLogger(logger)

	return &CommandContext{
		Config:    cfg,
		Printer:   printer,
		Prompter:  prompter,
		Logger:    logger,
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		logOutput: lc.Output,
	}, nil
}

// Shell builds the session store and API client and restores the stored
// session. It is safe to call more than once.
func (cc *CommandContext) Shell(ctx context.Context) (*app.Shell, error) {
	if cc.shell != nil {
		return cc.shell, nil
	}

	store, err := auth.NewStore(ctx, cc.Config.SessionOptions())
	if err != nil {
		return nil, err
	}
	client := platform.NewClient(cc.Config.APIBase,
		platform.WithTimeout(cc.Config.Timeout),
		platform.WithLogger(cc.Logger),
	)

	shell := app.New(store, client)
	if _, err := shell.Restore(ctx); err != nil {
		_ = auth.CloseStore(store)
		return nil, err
	}

	cc.store = store
	cc.shell = shell
	return shell, nil
}

// RequireSession is Shell for commands that only make sense logged in.
func (cc *CommandContext) RequireSession(ctx context.Context) (*app.Shell, error) {
	shell, err := cc.Shell(ctx)
	if err != nil {
		return nil, err
	}
	if !shell.LoggedIn() {
		return nil, errors.NewNotLoggedInError()
	}
	return shell, nil
}

// Close releases the session backend and the log file.
func (cc *CommandContext) Close() error {
	var err error
	if cc.store != nil {
		err = auth.CloseStore(cc.store)
		cc.store = nil
		cc.shell = nil
	}
	if cerr := cc.logOutput.Close(); err == nil {
		err = cerr
	}
	return err
}

// apiError turns transport failures into coded errors. By the time a 401 or
// 422 reaches here the interceptor has already cleared the stored session.
func (cc *CommandContext) apiError(err error) error {
	if err == nil {
		return nil
	}
	if platform.IsAuthFailure(err) {
		return errors.NewSessionExpiredError(platform.StatusOf(err))
	}
	var ne *platform.NetworkError
	if stderrors.As(err, &ne) {
		return errors.NewAPIUnreachableError(cc.Config.APIBase, ne.Err)
	}
	return err
}

// ask fills *value from the prompter when the flag was left empty.
func (cc *CommandContext) ask(value *string, flag string, p tui.Prompt) error {
	if strings.TrimSpace(*value) != "" {
		*value = strings.TrimSpace(*value)
		return nil
	}
	p.Required = true
	answer, err := cc.Prompter.String(p)
	if err != nil {
		return promptError(err, flag)
	}
	*value = strings.TrimSpace(answer)
	if *value == "" {
		return errors.NewRequiredFlagError(flag)
	}
	return nil
}

// askPassword is ask without echo.
func (cc *CommandContext) askPassword(value *string, flag, message string) error {
	if *value != "" {
		return nil
	}
	answer, err := cc.Prompter.Password(message)
	if err != nil {
		return promptError(err, flag)
	}
	if answer == "" {
		return errors.NewRequiredFlagError(flag)
	}
	*value = answer
	return nil
}

// confirm asks a yes/no question unless assumeYes is set. Without a terminal
// the answer is no.
func (cc *CommandContext) confirm(message string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	ok, err := cc.Prompter.Confirm(message, false)
	if err != nil {
		if stderrors.Is(err, tui.ErrNoTerminal) {
			return false, errors.New(errors.ErrCodeInputRequired, "confirmation required").
				WithSuggestion("Pass --yes to confirm without a terminal")
		}
		return false, promptError(err, "yes")
	}
	return ok, nil
}

// readLine reads the first line of the command's stdin.
func (cc *CommandContext) readLine() (string, error) {
	line, err := bufio.NewReader(cc.In).ReadString('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		return "", errors.Wrap(errors.ErrCodeFileReadFailed, "cannot read stdin", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptError(err error, flag string) error {
	switch {
	case stderrors.Is(err, tui.ErrNoTerminal):
		return errors.NewRequiredFlagError(flag)
	case stderrors.Is(err, huh.ErrUserAborted):
		return context.Canceled
	}
	return err
}
