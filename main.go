package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matst80/slask-inventory/pkg/common"
	"github.com/matst80/slask-inventory/pkg/server"
	"github.com/matst80/slask-inventory/pkg/storage"
	invsync "github.com/matst80/slask-inventory/pkg/sync"
)

var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")
var rabbitUrl = os.Getenv("RABBIT_URL")
var rabbitVHost = os.Getenv("RABBIT_VHOST")
var clientName = os.Getenv("NODE_NAME")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var dataPath = os.Getenv("DATA_PATH")
var listenAddress = ":8080"
var debugAddress = ":8081"

func init() {
	flag.Parse()
	if addr := os.Getenv("LISTEN_ADDRESS"); addr != "" {
		listenAddress = addr
	}
}

func main() {
	store := storage.NewSeededStore()

	var db *storage.DiskStorage
	if dataPath != "" {
		db = storage.NewDiskStorage(dataPath)
		if err := db.LoadItems(store); err != nil {
			log.Printf("Failed to load snapshot: %v", err)
		} else {
			log.Printf("Store ready with %d items", store.Len())
		}
	}

	var changeHandlers storage.ChangeHandlers
	var closers []func()

	srv := &server.WebServer{Store: store, Db: db}
	if redisUrl != "" {
		srv.Cache = server.NewCache(redisUrl, redisPassword, 0)
		changeHandlers = append(changeHandlers, &server.ListCacheInvalidator{Cache: srv.Cache})
		closers = append(closers, srv.Cache.Close)
		log.Printf("List cache enabled, url: %s", redisUrl)
	}

	if rabbitUrl != "" {
		rabbitConfig := invsync.DefaultRabbitConfig(rabbitUrl, rabbitVHost)
		if clientName == "" {
			master := &invsync.RabbitTransportMaster{RabbitConfig: rabbitConfig}
			if err := master.Connect(); err != nil {
				log.Printf("Failed to connect to RabbitMQ as master, %v", err)
			} else {
				log.Print("Connected to RabbitMQ as master")
				changeHandlers = append(changeHandlers, &invsync.RabbitMasterChangeHandler{Master: master})
				closers = append(closers, master.Close)
			}
		} else {
			log.Printf("Starting as client: %s", clientName)
			client := &invsync.RabbitTransportClient{ClientName: clientName, RabbitConfig: rabbitConfig}
			if err := client.Connect(store); err != nil {
				log.Fatalf("Failed to connect to RabbitMQ as client, %v", err)
			}
			closers = append(closers, client.Close)
		}
	}

	if len(changeHandlers) > 0 {
		store.ChangeHandler = changeHandlers
	}

	debugMux := http.NewServeMux()
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	debugMux.Handle("/metrics", promhttp.Handler())
	if *enableProfiling {
		log.Println("Profiling enabled")
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	go func() {
		log.Printf("Starting debug server %v", debugAddress)
		log.Fatal(http.ListenAndServe(debugAddress, debugMux))
	}()

	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           srv.Handle(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	var hooks []common.ShutdownHook
	if db != nil {
		hooks = append(hooks, func(ctx context.Context) error {
			return db.SaveItems(store)
		})
	}
	for _, closeFn := range closers {
		hooks = append(hooks, func(ctx context.Context) error {
			closeFn()
			return nil
		})
	}
	common.RunServerWithShutdown(httpServer, "inventory api", 15*time.Second, hooks...)
}
