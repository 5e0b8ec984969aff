package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/avoronin/vestnik/internal/annotate"
	"github.com/avoronin/vestnik/internal/claims"
	"github.com/avoronin/vestnik/internal/config"
	"github.com/avoronin/vestnik/internal/digest"
	"github.com/avoronin/vestnik/internal/house"
	"github.com/avoronin/vestnik/internal/jobs"
	"github.com/avoronin/vestnik/internal/listing"
	"github.com/avoronin/vestnik/internal/llm"
	"github.com/avoronin/vestnik/internal/mailbox"
	"github.com/avoronin/vestnik/internal/notify"
	"github.com/avoronin/vestnik/internal/schedule"
	"github.com/avoronin/vestnik/internal/server"
	"github.com/avoronin/vestnik/internal/source"
	"github.com/avoronin/vestnik/internal/store"
	"github.com/avoronin/vestnik/internal/telegram"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	// .env is optional; secrets may come from the real environment.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vestnik",
	Short:   "Mailbox and channel digests over Telegram",
	Long:    "Vestnik polls an IMAP folder and Telegram job channels, correlates claim emails, filters vacancies and delivers plain-text digests.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(houseCmd)
	rootCmd.AddCommand(countersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vestnik", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/vestnik/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure IMAP, channels and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and schedule status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Mailbox:")
		fmt.Printf("  Folder: %s\n", cfg.IMAP.Folder)
		fmt.Printf("  Last UID: %d\n", stats.LastUID)
		fmt.Println("\nDigests:")
		fmt.Printf("  Mail: %d\n", stats.MailDigests)
		fmt.Printf("  Jobs: %d\n", stats.JobsDigests)
		fmt.Printf("  House: %d\n", stats.HouseDigests)
		fmt.Println("\nSchedule:")
		fmt.Printf("  Hours: %v (%s, Mon-Fri)\n", cfg.Schedule.Hours, cfg.Schedule.Timezone)
		fmt.Printf("  Paused: %t\n", stats.Paused)
		fmt.Println("\nLLM:")
		fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
		fmt.Printf("  Model: %s\n", cfg.LLM.Model)
		return nil
	},
}

// --- digest command ---

var digestSend bool

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the mailbox digest once",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := newDigestRunner(st)
		if err != nil {
			return err
		}

		text, total, failed, err := runner.Run(context.Background())
		if err != nil {
			return fmt.Errorf("digest run: %w", err)
		}

		fmt.Println(text)
		fmt.Printf("\nПисем: %d, не обработано: %d.\n", total, failed)

		if digestSend {
			return deliver("Дайджест почты", text)
		}
		return nil
	},
}

// --- jobs command ---

var jobsSend bool

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run the channel vacancy digest once",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := newJobsRunner(st)
		if err != nil {
			return err
		}

		text, matched, stats, err := runner.Run(context.Background())
		if err != nil {
			return fmt.Errorf("jobs run: %w", err)
		}

		fmt.Println(text)
		fmt.Println()
		fmt.Println(jobs.FormatStats(stats))
		fmt.Printf("\nПодходящих постов: %d.\n", matched)

		if jobsSend {
			return deliver("Дайджест вакансий", text)
		}
		return nil
	},
}

// --- house command ---

var houseSend bool

var houseCmd = &cobra.Command{
	Use:   "house",
	Short: "Run the house chats digest once",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runner := newHouseRunner(st)
		text, messages, stats, err := runner.Run(context.Background())
		if err != nil {
			return fmt.Errorf("house chats run: %w", err)
		}

		fmt.Println(text)
		fmt.Println()
		fmt.Println(house.FormatStats(stats))
		fmt.Printf("\nНовых сообщений: %d.\n", messages)

		if houseSend {
			return deliver("Отчёт по домовым чатам", text)
		}
		return nil
	},
}

func init() {
	digestCmd.Flags().BoolVar(&digestSend, "send", false, "Deliver the digest to Telegram/email instead of stdout only")
	jobsCmd.Flags().BoolVar(&jobsSend, "send", false, "Deliver the digest to Telegram/email instead of stdout only")
	houseCmd.Flags().BoolVar(&houseSend, "send", false, "Deliver the report to Telegram/email instead of stdout only")
}

// --- counters command ---

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Show today's claim counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ledger, err := claims.NewLedger(st, cfg.Schedule.Timezone)
		if err != nil {
			return err
		}

		c := ledger.Load()
		fmt.Printf("Date: %s (%s)\n", c.Date, cfg.Schedule.Timezone)
		fmt.Printf("Total: %d\n", c.Total)
		fmt.Printf("Other: %d\n", c.Other)
		if len(c.Claims) == 0 {
			fmt.Println("Claims: none")
			return nil
		}
		fmt.Println("Claims:")
		for id, n := range c.Claims {
			fmt.Printf("  %s: %d\n", id, n)
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local digest preview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(st, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- start command ---

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the bot: command loop plus scheduled digests",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		digestRunner, err := newDigestRunner(st)
		if err != nil {
			return err
		}
		jobsRunner, err := newJobsRunner(st)
		if err != nil {
			return err
		}
		houseRunner := newHouseRunner(st)

		bot, err := telegram.NewBot(config.Secret(cfg.Telegram.BotTokenEnv), cfg.Telegram.ChatID)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched, err := schedule.New(cfg.Schedule.Timezone)
		if err != nil {
			return err
		}
		err = sched.AddDigestJobs(cfg.Schedule.Hours, func() {
			paused, err := st.Paused()
			if err != nil {
				log.Printf("Reading pause flag: %v", err)
				return
			}
			if paused {
				log.Println("Paused; skipping scheduled digest.")
				return
			}

			text, total, failed, err := digestRunner.Run(ctx)
			if err != nil {
				log.Printf("Scheduled digest failed: %v", err)
				bot.Send(fmt.Sprintf("Ошибка авто-дайджеста: %v", err))
				return
			}
			bot.Send(text)
			bot.Send(fmt.Sprintf("Авто-дайджест отправлен. Писем: %d, не обработано: %d.", total, failed))
			sendEmailCopy("Дайджест почты", text)
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		bot.Listen(ctx, telegram.Handlers{
			Status: func() string {
				stats, err := st.GetStats()
				if err != nil {
					return fmt.Sprintf("Ошибка: %v", err)
				}
				return fmt.Sprintf(
					"Статус:\n- paused: %t\n- last_uid: %d\n- folder: %s\n- schedule hours: %v\n- llm: %s\n- version: %s",
					stats.Paused, stats.LastUID, cfg.IMAP.Folder, cfg.Schedule.Hours, cfg.LLM.Model, version)
			},
			Pause:  func() error { return st.SetPaused(true) },
			Resume: func() error { return st.SetPaused(false) },
			DigestNow: func(ctx context.Context) (string, int, int, error) {
				return digestRunner.Run(ctx)
			},
			JobsNow: func(ctx context.Context) (string, int, error) {
				text, matched, stats, err := jobsRunner.Run(ctx)
				if err != nil {
					return "", 0, err
				}
				return text + "\n\n" + jobs.FormatStats(stats), matched, nil
			},
			HouseChatsNow: func(ctx context.Context) (string, int, error) {
				text, messages, stats, err := houseRunner.Run(ctx)
				if err != nil {
					return "", 0, err
				}
				return text + "\n\n" + house.FormatStats(stats), messages, nil
			},
			ChannelPost: func(ctx context.Context, channel string, postID int64, date time.Time, text string, spans []annotate.Span) {
				block, ok, err := jobsRunner.ProcessPost(channel, postID, date, text, spans)
				if err != nil {
					log.Printf("Channel post %s #%d failed: %v", channel, postID, err)
					return
				}
				if ok {
					bot.Send("Вакансии из поста канала:" + block)
				}
			},
		})
		return nil
	},
}

// --- wiring helpers ---

func openStore() (*store.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.Open(filepath.Join(dataDir, "vestnik.db"))
}

func newProvider() llm.Provider {
	return llm.CreateProvider(llm.Options{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       config.Secret(cfg.LLM.APIKeyEnv),
		GeminiModel:  cfg.LLM.GeminiModel,
		GeminiAPIKey: config.Secret(cfg.LLM.GeminiAPIKeyEnv),
	})
}

func newDigestRunner(st *store.Store) (*digest.Runner, error) {
	ledger, err := claims.NewLedger(st, cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}

	dial := func() (digest.Mailer, error) {
		return mailbox.Dial(cfg.IMAP.Host, cfg.IMAP.Port, cfg.IMAP.User, config.Secret(cfg.IMAP.PasswordEnv))
	}

	return digest.NewRunner(st, ledger, newProvider(), dial, digest.Config{
		Folder:           cfg.IMAP.Folder,
		MaxEmails:        cfg.Digest.MaxEmailsPerRun,
		MaxCharsPerEmail: cfg.Digest.MaxCharsPerEmail,
		SummaryMaxTokens: cfg.LLM.SummaryMaxTokens,
		DigestMaxTokens:  cfg.LLM.DigestMaxTokens,
	}), nil
}

func newJobsRunner(st *store.Store) (*jobs.Runner, error) {
	parser, err := listing.New(listing.Config{
		TargetCity:     cfg.Jobs.TargetCity,
		CityAliases:    cfg.Jobs.CityAliases,
		BannedKeywords: cfg.Jobs.BannedKeywords,
		RemoteKeywords: cfg.Jobs.RemoteKeywords,
		LinkPattern:    cfg.Jobs.LinkPattern,
	})
	if err != nil {
		return nil, fmt.Errorf("building listing parser: %w", err)
	}

	channels := make([]jobs.Channel, 0, len(cfg.Telegram.Channels))
	for _, ch := range cfg.Telegram.Channels {
		channels = append(channels, jobs.Channel{Name: ch.Name, FeedURL: ch.FeedURL})
	}

	return jobs.NewRunner(st, source.NewChannelFetcher(), parser, channels, cfg.Telegram.FetchLimit), nil
}

func newHouseRunner(st *store.Store) *house.Runner {
	chats := make([]house.Chat, 0, len(cfg.Telegram.HouseChats))
	for _, ch := range cfg.Telegram.HouseChats {
		chats = append(chats, house.Chat{Name: ch.Name, FeedURL: ch.FeedURL})
	}
	return house.NewRunner(st, source.NewChannelFetcher(), newProvider(), chats,
		cfg.Telegram.FetchLimit, cfg.LLM.SummaryMaxTokens)
}

func newEmailSender() *notify.EmailSender {
	e := cfg.Notify.Email
	return notify.NewEmailSender(notify.EmailConfig{
		SMTPServer: e.SMTPHost,
		SMTPPort:   e.SMTPPort,
		SMTPUser:   e.User,
		SMTPPass:   config.Secret(e.PasswordEnv),
		FromEmail:  e.From,
		ToEmail:    e.To,
		Enabled:    e.Enabled,
	})
}

// deliver sends a digest to Telegram and, when enabled, by email.
func deliver(subject, text string) error {
	bot, err := telegram.NewBot(config.Secret(cfg.Telegram.BotTokenEnv), cfg.Telegram.ChatID)
	if err != nil {
		return err
	}
	if err := bot.Send(text); err != nil {
		return err
	}
	sendEmailCopy(subject, text)
	return nil
}

func sendEmailCopy(subject, text string) {
	sender := newEmailSender()
	if !sender.Enabled() {
		return
	}
	if err := sender.Send(subject, text); err != nil {
		log.Printf("Email copy failed: %v", err)
	}
}
