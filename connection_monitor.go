package morm

import (
	"context"
	"sync"
	"time"
)

// DBPinger 定义数据库连接检查接口，便于测试
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// ConnectionMonitor pings the pool periodically and logs health transitions.
// It never reconnects: database/sql re-dials broken connections on its own.
type ConnectionMonitor struct {
	pinger         DBPinger
	dbName         string
	normalInterval time.Duration // 正常检查间隔
	errorInterval  time.Duration // 故障检查间隔
	stopCh         chan struct{}
	stopOnce       sync.Once
	lastHealthy    bool
	mu             sync.Mutex
}

func newConnectionMonitor(pinger DBPinger, dbName string, normal, onError time.Duration) *ConnectionMonitor {
	if onError <= 0 {
		onError = normal
	}
	return &ConnectionMonitor{
		pinger:         pinger,
		dbName:         dbName,
		normalInterval: normal,
		errorInterval:  onError,
		stopCh:         make(chan struct{}),
		lastHealthy:    true, // 假设初始状态为健康
	}
}

// Start launches the monitor goroutine.
func (cm *ConnectionMonitor) Start() {
	if cm == nil {
		return
	}
	go cm.run()
}

// Stop ends the monitor goroutine. It is safe to call more than once.
func (cm *ConnectionMonitor) Stop() {
	if cm == nil {
		return
	}
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}

// Healthy reports the result of the last check.
func (cm *ConnectionMonitor) Healthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.lastHealthy
}

func (cm *ConnectionMonitor) run() {
	interval := cm.normalInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-cm.stopCh:
			return
		case <-timer.C:
			// 根据连接状态调整检查间隔
			if cm.checkConnection() {
				interval = cm.normalInterval
			} else {
				interval = cm.errorInterval
			}
			timer.Reset(interval)
		}
	}
}

// checkConnection pings once and logs only when the health state changes.
func (cm *ConnectionMonitor) checkConnection() bool {
	// 增加超时控制，防止 Ping 挂死
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := cm.pinger.PingContext(ctx)
	isHealthy := err == nil

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.lastHealthy != isHealthy {
		if isHealthy {
			LogInfo("database connection recovered", map[string]interface{}{"db": cm.dbName})
		} else {
			LogError("database connection lost", map[string]interface{}{"db": cm.dbName, "error": fixStringEncoding(err.Error())})
		}
		cm.lastHealthy = isHealthy
	}
	return isHealthy
}
