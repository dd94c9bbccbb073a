// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/spread-analyzer/business/market/app"
	"github.com/fd1az/spread-analyzer/business/market/infra"
	"github.com/fd1az/spread-analyzer/business/market/infra/binance"
	"github.com/fd1az/spread-analyzer/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Feeder = di.NewToken[*app.Feeder]("market.Feeder")
)

// Private dependency tokens - internal to market module
var (
	BinanceClient = di.NewToken[*binance.Client]("market:binanceClient")
	RESTClient    = di.NewToken[*binance.RESTClient]("market:restClient")
	Publisher     = di.NewToken[*infra.RedisPublisher]("market:publisher")
)

func GetFeeder(c di.ServiceRegistry) *app.Feeder {
	return di.GetToken(c, Feeder)
}

func GetBinanceClient(c di.ServiceRegistry) *binance.Client {
	return di.GetToken(c, BinanceClient)
}

func GetRESTClient(c di.ServiceRegistry) *binance.RESTClient {
	return di.GetToken(c, RESTClient)
}

func GetPublisher(c di.ServiceRegistry) *infra.RedisPublisher {
	return di.GetToken(c, Publisher)
}
