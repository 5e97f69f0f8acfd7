package arduino

import (
	"log"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Product strings that identify an Arduino or one of its USB-serial clones.
var knownProducts = []string{"Arduino", "USB Serial"}

// FindPort scans the system serial ports for a device that looks like the
// Arduino. It returns the port path and true, or ("", false) when nothing
// matches; an empty bus is a normal condition, not an error.
func FindPort() (string, bool) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Printf("arduino: port enumeration failed: %v", err)
		return "", false
	}
	for _, p := range ports {
		if matchesDevice(p.Product, p.Name) {
			log.Printf("arduino: found device on port %s (%s)", p.Name, p.Product)
			return p.Name, true
		}
	}
	return "", false
}

func matchesDevice(product, name string) bool {
	for _, known := range knownProducts {
		if product != "" && strings.Contains(product, known) {
			return true
		}
	}
	// Linux CDC-ACM devices often enumerate without a product string.
	return strings.Contains(name, "ACM")
}
