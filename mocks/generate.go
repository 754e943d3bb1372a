package mocks

//go:generate mockgen -destination=./mock_execution_sink.go -package=mocks github.com/rxtech-lab/argo-research/internal/rebalance ExecutionSink
//go:generate mockgen -destination=./mock_rebalancer.go -package=mocks github.com/rxtech-lab/argo-research/internal/rebalance Rebalancer
