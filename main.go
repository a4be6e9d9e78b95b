package main

import (
	"log"
	"time"

	"chatflow/bus"
	"chatflow/config"
	"chatflow/controllers"
	"chatflow/db"
	"chatflow/flow"
	"chatflow/router"
	"chatflow/store"
	"chatflow/tools"
	"chatflow/workers"

	"github.com/gin-gonic/gin"
)

func main() {
	configuration := config.Get("config/config.json")

	db.SetConfigurations(configuration)
	database, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	rules := store.NewRules(database)
	sessions := store.NewSessions(database)
	dedup := store.NewDedup(database)
	messages := store.NewMessages(database)
	roles := store.NewRoles(database)

	// Falha na subida se alguma regra calculadora estiver quebrada.
	all, err := rules.All()
	if err != nil {
		log.Fatal(err)
	}
	if err := flow.ValidateRules(all); err != nil {
		log.Fatalf("regra calculadora inválida: %v", err)
	}

	sender := tools.NewWhatsAppClient(
		configuration.WhatsApp.AccessToken,
		configuration.WhatsApp.PhoneNumberID,
		configuration.WhatsApp.ApiVersion,
	)
	broadcaster := bus.New()

	engine := flow.New(flow.Config{
		EntryStep:      configuration.Flow.EntryStep,
		EntryTrigger:   configuration.Flow.EntryTrigger,
		DebounceWindow: time.Duration(configuration.Flow.DebounceSeconds) * time.Second,
		SessionTimeout: time.Duration(configuration.Flow.SessionTimeout) * time.Second,
	}, flow.Deps{
		Rules:    rules,
		Sessions: sessions,
		Dedup:    dedup,
		Messages: messages,
		Roles:    roles,
		Sender:   sender,
		Notifier: broadcaster,
	})

	controllers.SetupWebhook(engine, configuration.WhatsApp.VerifyToken, configuration.WhatsApp.AppSecret)
	controllers.SetupEvents(broadcaster)

	r := gin.New()
	router.Initialize(r, configuration)

	workers.StartSessionSweeper(engine, time.Minute)

	log.Printf("Chatflow listening on :%s", configuration.ApiPort)
	log.Fatal(r.Run(":" + configuration.ApiPort))
}
