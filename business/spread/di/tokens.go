// Package di contains dependency injection tokens for the spread context.
package di

import (
	"github.com/fd1az/spread-analyzer/business/spread/app"
	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/business/spread/infra"
	"github.com/fd1az/spread-analyzer/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BookStore = di.NewToken[*app.BookStore]("spread.BookStore")
	Reporter  = di.NewToken[app.Reporter]("spread.Reporter")
	Detector  = di.NewToken[*app.Detector]("spread.Detector")
)

// Private dependency tokens - internal to spread module
var (
	Normalizer  = di.NewToken[*domain.PairNormalizer]("spread:normalizer")
	Evaluator   = di.NewToken[*app.OpportunityEvaluator]("spread:evaluator")
	Analyzer    = di.NewToken[*app.SpreadAnalyzer]("spread:analyzer")
	RedisSource = di.NewToken[*infra.RedisSource]("spread:redisSource")
)

// Helper functions for type-safe access
func GetBookStore(c di.ServiceRegistry) *app.BookStore {
	return di.GetToken(c, BookStore)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetNormalizer(c di.ServiceRegistry) *domain.PairNormalizer {
	return di.GetToken(c, Normalizer)
}

func GetEvaluator(c di.ServiceRegistry) *app.OpportunityEvaluator {
	return di.GetToken(c, Evaluator)
}

func GetAnalyzer(c di.ServiceRegistry) *app.SpreadAnalyzer {
	return di.GetToken(c, Analyzer)
}

func GetRedisSource(c di.ServiceRegistry) *infra.RedisSource {
	return di.GetToken(c, RedisSource)
}
