package bot

import (
	"fmt"

	"codeberg.org/mutker/servwatch/internal/alerter"
)

// Send delivers one fired alert as an HTML message. Implements
// alerter.Notifier; retry policy is deliberately absent, the engine
// treats a failed send as fired.
func (b *Bot) Send(event alerter.Event) error {
	return b.sendText(alertText(event))
}

func alertText(event alerter.Event) string {
	emoji := "🟡"
	if event.Severity == alerter.SeverityCritical {
		emoji = "🔴"
	}

	header := fmt.Sprintf("%s <b>[%s] %s</b>", emoji, event.Severity, event.Server)

	var body string
	switch event.Category {
	case alerter.CategoryCPU:
		body = fmt.Sprintf("CPU usage: <b>%.1f%%</b>", event.Value)
	case alerter.CategoryMemory:
		body = fmt.Sprintf("Memory usage: <b>%.1f%%</b>", event.Value)
	case alerter.CategoryDisk:
		body = fmt.Sprintf("Disk %s: <b>%.1f%%</b>", event.Target, event.Value)
	case alerter.CategoryGPUTemp:
		body = fmt.Sprintf("GPU %s temperature: <b>%.0f°C</b>", event.Target, event.Value)
	case alerter.CategoryGPUMemory:
		body = fmt.Sprintf("GPU %s memory: <b>%.1f%%</b>", event.Target, event.Value)
	default:
		body = fmt.Sprintf("%s: <b>%.1f</b>", event.Category, event.Value)
	}

	return header + "\n" + body
}
