package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/SLDem/BlogApp/internal/auth"
	"github.com/SLDem/BlogApp/internal/cache"
	"github.com/SLDem/BlogApp/internal/config"
	"github.com/SLDem/BlogApp/internal/db"
	"github.com/SLDem/BlogApp/internal/server"
	"github.com/SLDem/BlogApp/internal/util"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer database.Close()

	clock := util.NewRealClock()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, clock)
	postCache := cache.New(cfg.CacheSize, cfg.CacheTTL, clock)
	srv := server.New(database, tokens, postCache, log, cfg.BcryptCost)

	log.WithField("addr", cfg.Addr).Info("listening")
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
