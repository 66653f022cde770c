package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/formsense/internal/api"
	"github.com/banshee-data/formsense/internal/classify"
	"github.com/banshee-data/formsense/internal/config"
	"github.com/banshee-data/formsense/internal/correction"
	"github.com/banshee-data/formsense/internal/db"
	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/httputil"
	"github.com/banshee-data/formsense/internal/metrics"
	"github.com/banshee-data/formsense/internal/monitor"
	"github.com/banshee-data/formsense/internal/recorder"
	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/session"
	"github.com/banshee-data/formsense/internal/timeutil"
	"github.com/banshee-data/formsense/internal/version"
)

const defaultDBPath = "formsense.db"

type serveFlags struct {
	listen        string
	dbPath        string
	configPath    string
	profilesPath  string
	correctionURL string
	classifierURL string
	labelsPath    string
	mqttBroker    string
	kafkaBrokers  string
}

func parseServeFlags(args []string) (serveFlags, error) {
	var f serveFlags
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&f.listen, "listen", ":8080", "Listen address")
	fs.StringVar(&f.dbPath, "db", defaultDBPath, "SQLite database path")
	fs.StringVar(&f.configPath, "config", "", "Tuning config JSON (defaults apply when empty)")
	fs.StringVar(&f.profilesPath, "profiles", "", "Rep profile YAML overriding the built-in profiles")
	fs.StringVar(&f.correctionURL, "correction-url", "", "Pose correction service URL (disabled when empty)")
	fs.StringVar(&f.classifierURL, "classifier-url", "", "Exercise classifier URL (disabled when empty)")
	fs.StringVar(&f.labelsPath, "labels", "", "Classifier label list JSON")
	fs.StringVar(&f.mqttBroker, "mqtt-broker", "", "MQTT broker for rep events")
	fs.StringVar(&f.kafkaBrokers, "kafka-brokers", "", "Comma-separated Kafka brokers for rep events")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.listen == "" {
		return f, errors.New("listen address is required")
	}
	if f.classifierURL != "" && f.labelsPath == "" {
		return f, errors.New("-labels is required with -classifier-url")
	}
	return f, nil
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func loadProfiles(path string) (map[string]reps.Profile, error) {
	if path == "" {
		return reps.DefaultProfiles(), nil
	}
	return reps.LoadProfiles(path)
}

func runServe(args []string) error {
	f, err := parseServeFlags(args)
	if err != nil {
		return err
	}
	tuning, err := loadTuning(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	profiles, err := loadProfiles(f.profilesPath)
	if err != nil {
		return fmt.Errorf("load rep profiles: %w", err)
	}

	store, err := db.NewDB(f.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	m := metrics.New()
	client := httputil.NewStandardClient(&http.Client{Timeout: 10 * time.Second})

	var worker *correction.Worker
	if f.correctionURL != "" {
		wcfg := correction.WorkerConfigFromTuning(tuning)
		wcfg.OnResult = func(_ correction.Result, err error) { m.Correction(err) }
		worker = correction.NewWorker(correction.NewClient(client, f.correctionURL, timeutil.RealClock{}), wcfg)
		m.WatchCounter("correction_drops_total", "Correction requests replaced before they were sent.",
			func() uint64 { return worker.Stats().Drops })
		g.Go(func() error { return worker.Run(ctx) })
	}

	var recognizer *classify.Recognizer
	if f.classifierURL != "" {
		labels, err := classify.LoadLabels(f.labelsPath)
		if err != nil {
			return fmt.Errorf("load labels: %w", err)
		}
		recognizer = classify.NewRecognizer(classify.NewRemoteClassifier(client, f.classifierURL), labels, tuning.GetPredictionWindow())
	}

	sinks := recorder.Multi{recorder.NewStoreRecorder(store)}
	if f.mqttBroker != "" {
		mc, err := recorder.DialMQTT(ctx, f.mqttBroker, "formsense-"+uuid.NewString()[:8])
		if err != nil {
			return err
		}
		defer mc.Disconnect(250)
		sinks = append(sinks, recorder.NewMQTTRecorder(mc, recorder.DefaultMQTTTopic))
	}
	if f.kafkaBrokers != "" {
		kw := recorder.NewKafkaWriter(strings.Split(f.kafkaBrokers, ","), recorder.DefaultKafkaTopic)
		defer kw.Close()
		sinks = append(sinks, recorder.NewKafkaRecorder(kw))
	}
	async := recorder.NewAsync(sinks, tuning.GetRecorderQueueSize())
	m.WatchCounter("recorder_dropped_total", "Rep events dropped because the recorder queue was full.", async.Dropped)
	m.WatchCounter("recorder_failed_total", "Rep events a sink failed to record.", async.Failed)
	g.Go(func() error { return async.Run(ctx) })

	sess := session.New(session.ConfigFromTuning(tuning), session.Deps{
		Engine:      form.NewEngine(),
		Counter:     reps.NewCounter(reps.CounterConfigFromTuning(tuning, profiles)),
		Corrections: worker,
		Store:       store,
		Recorder:    async,
		Recognizer:  recognizer,
		Metrics:     m,
	})
	if err := sess.Restore(ctx); err != nil {
		return fmt.Errorf("restore rep counts: %w", err)
	}
	log.Printf("%s", version.String())
	log.Printf("session %s restored counts %v", sess.ID(), sess.Counts())

	mux := api.NewServer(sess, api.Options{
		Workouts: store,
		Tuning:   tuning,
		Metrics:  m,
		Charts:   &monitor.Handlers{Session: sess, Profiles: profiles},
	}).ServeMux()

	// admin debugging routes are reachable only over loopback or Tailscale
	if _, err := store.AttachAdminRoutes(mux); err != nil {
		return fmt.Errorf("attach admin routes: %w", err)
	}

	server := &http.Server{
		Addr:              f.listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		log.Printf("listening on %s", f.listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Printf("formsense stopped")
	return err
}
