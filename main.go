package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	classifierx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/classifier"
	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
	dispatchx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/dispatch"
	handlerx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/handler"
	llmx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/llm"
	pipelinex "github.com/tanpawarit/Aria-Voice-Assistant/assistant/pipeline"
	promptx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/prompt"
	remindx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/remind"
	replyx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/reply"
	storex "github.com/tanpawarit/Aria-Voice-Assistant/assistant/store"
	authx "github.com/tanpawarit/Aria-Voice-Assistant/pkg/auth"
	configx "github.com/tanpawarit/Aria-Voice-Assistant/pkg/config"
	_ "github.com/tanpawarit/Aria-Voice-Assistant/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/Aria-Voice-Assistant/pkg/qstash"
	serverx "github.com/tanpawarit/Aria-Voice-Assistant/server"
)

type AppConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	ReminderURL    string        `envconfig:"REMINDER_URL"`
	ReminderLead   time.Duration `envconfig:"REMINDER_LEAD" default:"30m"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid openrouter config")
	}

	pgCfg := configx.MustNew[storex.PostgresConfig]("POSTGRES")
	docStore, err := storex.NewPostgres(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open document store")
	}
	defer func() {
		if err := docStore.Close(); err != nil {
			log.Error().Err(err).Msg("close document store")
		}
	}()

	setupCtx, cancelSetup := context.WithTimeout(ctx, pgCfg.Timeout)
	if err := docStore.Ping(setupCtx); err != nil {
		log.Fatal().Err(err).Msg("document store unreachable")
	}
	if err := docStore.Init(setupCtx); err != nil {
		log.Fatal().Err(err).Msg("init document store schema")
	}
	cancelSetup()
	log.Info().Msg("document store ready")

	conversations := newConversationStore()

	authCfg := configx.MustNew[authx.Config]("AUTH")
	verifier, err := authx.NewVerifier(*authCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init token verifier")
	}

	prompts := promptx.LoadPromptSet()

	clsModelCfg := llmCfg.OpenRouterFor(contractx.RoleClassifier)
	clsModel, err := clsModelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("init classifier model")
	}
	cls, err := classifierx.New(ctx, clsModel, prompts.Classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("build classifier")
	}

	phraser, err := llmx.NewPhraser(llmCfg.OpenRouterFor(contractx.RoleComposer), prompts.Composer)
	if err != nil {
		log.Fatal().Err(err).Msg("build phraser")
	}

	reminders := newReminderPublisher(*appCfg)

	memoryHandler, err := handlerx.NewMemory(docStore)
	if err != nil {
		log.Fatal().Err(err).Msg("build memory handler")
	}
	calendarHandler, err := handlerx.NewCalendar(docStore, reminders)
	if err != nil {
		log.Fatal().Err(err).Msg("build calendar handler")
	}
	budgetHandler, err := handlerx.NewBudget(docStore)
	if err != nil {
		log.Fatal().Err(err).Msg("build budget handler")
	}
	homeworkHandler, err := handlerx.NewHomework(docStore)
	if err != nil {
		log.Fatal().Err(err).Msg("build homework handler")
	}

	dispatcher, err := dispatchx.New(dispatchx.Handlers{
		Memory:     memoryHandler,
		Calendar:   calendarHandler,
		Budget:     budgetHandler,
		Homework:   homeworkHandler,
		Calculator: handlerx.NewCalculator(),
		Chat:       handlerx.NewChat(phraser, conversations),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build dispatcher")
	}

	pipe, err := pipelinex.New(pipelinex.Deps{
		Classifier:    cls,
		Dispatcher:    dispatcher,
		Composer:      replyx.New(phraser),
		Conversations: conversations,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build chat pipeline")
	}

	srv, err := serverx.New(serverx.Deps{
		Chat:           pipe,
		Store:          docStore,
		Verifier:       verifier,
		AllowedOrigins: appCfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build http server")
	}

	httpSrv := &http.Server{
		Addr:    ":" + appCfg.Port,
		Handler: srv.Router(),
		// One chat request can ride two model calls, so the write timeout
		// must cover both plus persistence.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

// newConversationStore builds the rolling-context store. The context is
// advisory, so a missing or broken CONVERSATION config downgrades to running
// without it instead of failing startup.
func newConversationStore() contractx.ConversationStore {
	cfg, err := configx.New[storex.UpstashRedisConfig]("CONVERSATION")
	if err != nil {
		log.Warn().Err(err).Msg("conversation context disabled")
		return nil
	}

	conv, err := storex.NewUpstashConversationStore(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("conversation context disabled")
		return nil
	}

	log.Info().Msg("conversation context enabled")
	return conv
}

// newReminderPublisher builds the QStash reminder publisher when a
// destination is configured. REMINDER_URL opts in; once set, a bad QSTASH
// config is a startup failure rather than a silent downgrade.
func newReminderPublisher(cfg AppConfig) contractx.ReminderPublisher {
	if strings.TrimSpace(cfg.ReminderURL) == "" {
		log.Info().Msg("event reminders disabled")
		return nil
	}

	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	client, err := qstashx.NewClient(*qstashCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init qstash client")
	}

	pub, err := remindx.NewQStash(client, cfg.ReminderURL, cfg.ReminderLead)
	if err != nil {
		log.Fatal().Err(err).Msg("init reminder publisher")
	}

	log.Info().Str("destination", cfg.ReminderURL).Dur("lead", cfg.ReminderLead).Msg("event reminders enabled")
	return pub
}
