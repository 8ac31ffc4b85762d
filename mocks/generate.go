package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource BarSource
//go:generate mockgen -destination=./mock_signal.go -package=mocks github.com/rxtech-lab/argo-macd/internal/signal Generator
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-macd/pkg/marketdata/provider Provider,OrderBookProvider
//go:generate mockgen -destination=./mock_sender.go -package=mocks github.com/rxtech-lab/argo-macd/internal/notify Sender
