// Package cfg opens the storage provider the agent is configured to use.
// Providers are shared: opening the same configuration twice returns the
// same provider, and it's closed when the last user closes it.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/findy-network/findy-credex/agent/storage/mem"
	"github.com/findy-network/findy-credex/agent/storage/sqlite"
	"github.com/findy-network/findy-credex/agent/storage/wrapper"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBolt   Backend = "bolt"
	BackendSQLite Backend = "sqlite"
)

type AgentStorage struct {
	Backend  Backend
	AgentID  string
	AgentKey string // hex encoded, bolt only
	FilePath string

	// Stores lists the store names the bolt backend creates buckets for.
	Stores []string
}

type storageInfo struct {
	provider storage.Provider
	refs     int
}

var storages = struct {
	sync.Mutex
	m map[string]*storageInfo
}{
	m: make(map[string]*storageInfo),
}

func (c *AgentStorage) UniqueID() string {
	return string(c.Backend) + ":" + filepath.Join(c.FilePath, c.AgentID)
}

// Open returns the provider of the configuration.
func (c *AgentStorage) Open() (p storage.Provider, err error) {
	defer err2.Handle(&err, "open agent storage %s", c.AgentID)

	storages.Lock()
	defer storages.Unlock()

	if info, exist := storages.m[c.UniqueID()]; exist {
		info.refs++
		glog.V(5).Infoln("open existing agent storage:", c.AgentID, info.refs)
		return info.provider, nil
	}

	p = try.To1(c.newProvider())
	glog.V(5).Infoln("successful first time opening agent storage:", c.UniqueID())

	storages.m[c.UniqueID()] = &storageInfo{provider: p, refs: 1}
	return p, nil
}

func (c *AgentStorage) newProvider() (storage.Provider, error) {
	switch c.Backend {
	case BackendMemory, "":
		return mem.New(), nil
	case BackendBolt:
		if len(c.Stores) == 0 {
			return nil, fmt.Errorf("bolt storage needs store names")
		}
		if err := ensureDir(c.FilePath); err != nil {
			return nil, err
		}
		p := wrapper.New(wrapper.Config{
			Key:       c.AgentKey,
			FileName:  c.AgentID,
			FilePath:  c.FilePath,
			BucketIDs: c.Stores,
		})
		return p, p.Init()
	case BackendSQLite:
		if err := ensureDir(c.FilePath); err != nil {
			return nil, err
		}
		return sqlite.Open(filepath.Join(c.FilePath, c.AgentID+".sqlite"))
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o700)
}

// Close releases one reference of the provider.
func (c *AgentStorage) Close() (err error) {
	defer err2.Handle(&err, "close agent storage %s", c.AgentID)

	storages.Lock()
	defer storages.Unlock()

	info, exist := storages.m[c.UniqueID()]
	if !exist {
		glog.Warningf("Close called but storage (%s) not open!", c.UniqueID())
		return nil
	}
	info.refs--
	if info.refs > 0 {
		return nil
	}
	delete(storages.m, c.UniqueID())
	try.To(info.provider.Close())
	glog.V(5).Infoln("successful closing agent storage:", c.AgentID)
	return nil
}
