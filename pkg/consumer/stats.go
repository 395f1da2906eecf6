package consumer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adjust/rmq/v5"
	"github.com/travigo/trainrac/pkg/database"
	"github.com/travigo/trainrac/pkg/redis_client"
)

type StatsServerHandler struct {
	redisConnection rmq.Connection
}

func NewStatsHandler(connection rmq.Connection) *StatsServerHandler {
	return &StatsServerHandler{redisConnection: connection}
}

func (handler *StatsServerHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	layout := request.FormValue("layout")
	refresh := request.FormValue("refresh")

	queues, err := handler.redisConnection.GetOpenQueues()
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)
		return
	}

	stats, err := handler.redisConnection.CollectStats(queues)
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)
		return
	}

	fmt.Fprint(writer, stats.GetHtml(layout, refresh))
}

type HealthHandler struct {
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (handler *HealthHandler) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	if redis_client.Client != nil {
		testRedis := redis_client.Client.ClientID(context.TODO())
		if testRedis.Err() != nil {
			writer.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(writer, testRedis.Err())

			return
		}
	}

	if database.MongoGlobalInstance != nil {
		testMongo := database.MongoGlobalInstance.Client.Ping(context.TODO(), nil)
		if testMongo != nil {
			writer.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(writer, testMongo)

			return
		}
	}

	writer.WriteHeader(http.StatusOK)
	fmt.Fprint(writer, "OK")
}
