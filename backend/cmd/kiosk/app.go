package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"liberal-checkin/backend/config"
	"liberal-checkin/backend/internal/admin"
	"liberal-checkin/backend/internal/client"
	"liberal-checkin/backend/internal/kiosk"
	applogger "liberal-checkin/backend/pkg/logger"
	"liberal-checkin/backend/pkg/report"
)

const (
	flagServer   = "server"
	flagTimeout  = "timeout"
	flagToken    = "token-file"
	flagTimezone = "timezone"
	flagLogLevel = "log-level"
)

// terminal 终端输入输出，实现 admin.Alerter
type terminal struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func (t *terminal) Alert(msg string) {
	fmt.Fprintf(t.err, "⚠ %s\n", msg)
}

func (t *terminal) Confirm(msg string) bool {
	fmt.Fprintf(t.out, "%s [s/N]: ", msg)
	line, _ := t.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

// prompt 读取一行；输入结束时返回 io.EOF
func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	line, err := t.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	term := &terminal{in: bufio.NewReader(stdin), out: stdout, err: stderr}

	return &cli.App{
		Name:      "kiosk",
		Usage:     "Bar Liberal check-in terminal",
		Writer:    stdout,
		ErrWriter: stderr,
		Before: func(c *cli.Context) error {
			_ = godotenv.Load()
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagServer,
				Value:   "http://localhost:3000",
				Usage:   "check-in server base URL",
				EnvVars: []string{"KIOSK_SERVER_URL"},
			},
			&cli.DurationFlag{
				Name:    flagTimeout,
				Value:   client.DefaultTimeout,
				Usage:   "per-request timeout",
				EnvVars: []string{"KIOSK_CLIENT_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    flagToken,
				Value:   defaultTokenFile(),
				Usage:   "file that stores the admin access token",
				EnvVars: []string{"KIOSK_TOKEN_FILE"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "warn",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"KIOSK_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			checkinCommand(term),
			adminCommand(term),
		},
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".kiosk-token"
	}
	return filepath.Join(dir, "liberal-checkin", "token")
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	return applogger.NewLogger(&config.LogConfig{Level: c.String(flagLogLevel), Format: "console"})
}

func newClient(c *cli.Context) *client.Client {
	opts := []client.Option{client.WithTimeout(c.Duration(flagTimeout))}
	if b, err := os.ReadFile(c.String(flagToken)); err == nil {
		opts = append(opts, client.WithToken(strings.TrimSpace(string(b))))
	}
	return client.New(c.String(flagServer), opts...)
}

// ────────────────────── checkin ──────────────────────

func checkinCommand(term *terminal) *cli.Command {
	return &cli.Command{
		Name:  "checkin",
		Usage: "interactive check-in form (Ctrl-D to quit)",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "success-duration",
				Value: kiosk.DefaultSuccessDuration,
				Usage: "how long the confirmation stays on screen",
			},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c)
			if err != nil {
				return err
			}
			defer logger.Sync()

			reset := make(chan struct{}, 1)
			form := kiosk.NewForm(newClient(c), logger,
				kiosk.WithSuccessDuration(c.Duration("success-duration")),
				kiosk.WithOnReset(func() { reset <- struct{}{} }),
			)
			defer form.Close()

			for {
				if err := fillForm(term, form); err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}

				ok, err := form.Submit(c.Context)
				switch {
				case err != nil:
					fmt.Fprintf(term.out, "\n✗ Não foi possível registrar a entrada: %v\n  Os dados foram mantidos, tente novamente.\n\n", err)
				case !ok:
					fmt.Fprintln(term.out, "\nPreencha nome, WhatsApp e aceite os termos.")
				default:
					fmt.Fprintln(term.out, "\n✓ BEM-VINDO! Sua entrada foi registrada com sucesso.")
					select {
					case <-reset:
					case <-c.Context.Done():
						return nil
					}
					fmt.Fprintln(term.out)
				}
			}
		},
	}
}

// fillForm 逐项读取字段；回车保留当前值
func fillForm(term *terminal, form *kiosk.Form) error {
	s := form.Snapshot()
	fmt.Fprintln(term.out, "── BAR LIBERAL · Check-in Portaria ──")

	profile, err := term.prompt(fmt.Sprintf("Perfil [CASAL/SOLTEIRO] (%s)", s.Profile))
	if err != nil {
		return err
	}
	if profile != "" {
		if err := form.SetProfile(profile); err != nil {
			fmt.Fprintln(term.out, "Perfil inválido, mantendo", s.Profile)
		}
	}

	name, err := term.prompt(withDefault("Nome Completo", s.Name))
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name != "" {
		form.SetName(name)
	}

	phone, err := term.prompt(withDefault("WhatsApp", s.Phone))
	if err != nil {
		return err
	}
	if phone != "" {
		form.SetPhone(phone)
		fmt.Fprintln(term.out, "  →", form.Snapshot().Phone)
	}

	form.SetConsent(term.Confirm("Consinto com a coleta dos meus dados (LGPD). Aceito?"))
	return nil
}

func withDefault(label, current string) string {
	if current == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, current)
}

// ────────────────────── admin ──────────────────────

func adminCommand(term *terminal) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "staff operations on the check-in list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagTimezone,
				Value:   "America/Sao_Paulo",
				Usage:   "venue time zone used to display and export timestamps",
				EnvVars: []string{"KIOSK_EXPORT_TIMEZONE"},
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in with the admin password and store the token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Usage: "admin password (prompted when empty)", EnvVars: []string{"KIOSK_ADMIN_PASSWORD"}},
				},
				Action: func(c *cli.Context) error {
					password := c.String("password")
					if password == "" {
						p, err := term.prompt("Senha")
						if err != nil {
							return err
						}
						password = p
					}

					api := newClient(c)
					tok, err := api.Login(c.Context, password)
					if err != nil {
						return err
					}
					path := c.String(flagToken)
					if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
						return err
					}
					if err := os.WriteFile(path, []byte(tok.AccessToken), 0o600); err != nil {
						return err
					}
					fmt.Fprintf(term.out, "Login OK (válido por %s)\n", time.Duration(tok.ExpiresIn)*time.Second)
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "revoke and remove the stored token",
				Action: func(c *cli.Context) error {
					if err := newClient(c).Logout(c.Context); err != nil && !client.IsUnauthorized(err) {
						return err
					}
					if err := os.Remove(c.String(flagToken)); err != nil && !os.IsNotExist(err) {
						return err
					}
					fmt.Fprintln(term.out, "Logout OK")
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "show all check-ins (newest first)",
				Action: func(c *cli.Context) error {
					view, err := openView(c, term)
					if err != nil {
						return err
					}
					rows := view.Rows()
					fmt.Fprintf(term.out, "LISTA (%d)\n", len(rows))
					if len(rows) == 0 {
						fmt.Fprintln(term.out, "Nenhum check-in realizado")
						return nil
					}
					for _, r := range rows {
						fmt.Fprintf(term.out, "#%-5d %-30s %-16s %s  [%s]\n", r.ID, r.Name, r.WhatsApp, r.When, r.Profile)
					}
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "export the list to a printable document",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(report.FormatPDF), Usage: "pdf or xlsx"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default checkins-bar-liberal.<format>)"},
					&cli.StringFlag{Name: "title", Value: "Lista de Check-ins - Bar Liberal", Usage: "document title"},
				},
				Action: func(c *cli.Context) error {
					format, err := report.ParseFormat(c.String("format"))
					if err != nil {
						return err
					}
					view, err := openView(c, term, admin.WithReportTitle(c.String("title")))
					if err != nil {
						return err
					}

					out := c.String("output")
					if out == "" {
						out = format.Filename()
					}
					// 先渲染到内存，列表为空时不创建文件
					var buf bytes.Buffer
					ok, err := view.Export(&buf, format)
					if err != nil || !ok {
						return err
					}
					if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
						return err
					}
					fmt.Fprintf(term.out, "Exportado: %s\n", out)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "delete ALL check-ins (asks for confirmation)",
				Action: func(c *cli.Context) error {
					view, err := openView(c, term)
					if err != nil {
						return err
					}
					_, err = view.Clear(c.Context)
					return err
				},
			},
		},
	}
}

// openView 创建管理视图并拉取列表
func openView(c *cli.Context, term *terminal, opts ...admin.Option) (*admin.View, error) {
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.String(flagTimezone))
	if err != nil {
		return nil, fmt.Errorf("时区无效: %w", err)
	}
	opts = append([]admin.Option{admin.WithLocation(loc)}, opts...)

	view := admin.NewView(newClient(c), term, logger, opts...)
	ctx, cancel := context.WithTimeout(c.Context, c.Duration(flagTimeout))
	defer cancel()
	if err := view.Open(ctx); err != nil {
		return nil, err
	}
	return view, nil
}
