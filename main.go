package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"course-middleware/auth"
	"course-middleware/config"
	"course-middleware/course"
	"course-middleware/helpers"
	"course-middleware/observer"
	"course-middleware/payments"
	"course-middleware/routes"
	"course-middleware/userdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	configPath := flag.String("config", "config.yml", "path to the yaml config file, empty to use only the environment")
	flag.Parse()

	conf, err := config.LoadConfigYaml(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err.Error())
	}

	fa, err := auth.NewFusionAuthClient(conf)
	if err != nil {
		log.Fatalf("failed to initialize fusionauth client: %v", err.Error())
	}
	directory := auth.NewDirectory(fa)

	sc := payments.NewStripeClient(conf)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, store, err := userdata.Connect(ctx, conf.Postgres.URL)
	cancel()
	if err != nil {
		log.Fatalf("failed to initialize progress store: %v", err.Error())
	}
	defer pool.Close()

	policy := observer.Policy{
		MaxAttempts: conf.Observer.MaxAttempts,
		Interval:    conf.Observer.Interval,
	}

	h := &routes.Handlers{
		Conf:   conf,
		Issuer: &payments.Issuer{Sessions: sc.CheckoutSessions, Conf: conf},
		Webhook: &payments.Webhook{
			Secret: conf.Stripe.WebhookSecret,
			Users:  directory,
		},
		Users:    directory,
		Progress: store,
		Observer: observer.New(policy),
		Oauth:    auth.NewOauthConfig(conf),
		Gate:     course.Gate{FreeWeeks: conf.Course.FreeWeeks},
	}

	// start up the api server
	r := gin.Default()
	r.Use(helpers.RequestID())
	h.Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   conf.Global.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Stripe-Signature"},
	})

	// the payment page holds the request open while it waits for the
	// webhook, so the write timeout has to outlast the whole poll
	awaitBudget := time.Duration(policy.MaxAttempts) * policy.Interval
	srv := &http.Server{
		Addr:         fmt.Sprintf("%v:%v", conf.Global.BindAddr, conf.Global.BindPort),
		Handler:      c.Handler(r),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: awaitBudget + 20*time.Second,
	}

	log.Printf("Starting server on %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatalf("error running gin: %v", err.Error())
	}
}
