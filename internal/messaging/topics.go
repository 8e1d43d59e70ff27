package messaging

// Topic constants for the OreQuest messaging system
const (
	// TopicEvents carries the engine's lifecycle event stream // oreqd → oreproc
	TopicEvents = "orequest.events"

	// TopicOreTelemetry carries raw rig accrual frames relayed over Kafka
	// for deployments that prefer it to the ZMQ feed // rigs → oreqd
	TopicOreTelemetry = "orequest.telemetry.ore"

	// TopicMinerStats carries settled stats snapshots // oreproc → dashboards
	TopicMinerStats = "orequest.miner_stats"
)
