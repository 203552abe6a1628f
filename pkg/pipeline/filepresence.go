package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/corvidlabs/noctua/pkg/llm"
)

// runWithFilePresenceRetry is C4: invoke once, check expectedFiles exist,
// and if any are missing, invoke exactly once more with a reinforced
// prompt naming the missing paths and retryHint. Callers re-check presence
// after this returns and are responsible for the missing_artifact error.
func (d *driver) runWithFilePresenceRetry(ctx context.Context, prompt string, cfg llm.InvokeConfig, expectedFiles []string, retryHint string) (*llm.Result, error) {
	result, err := d.client.Invoke(ctx, prompt, cfg)
	if err != nil {
		return nil, err
	}

	missing := missingFiles(expectedFiles)
	if len(missing) == 0 {
		return result, nil
	}

	reinforced := prompt + "\n\n" + retryPromptSuffix(missing, retryHint)
	return d.client.Invoke(ctx, reinforced, cfg)
}

func missingFiles(paths []string) []string {
	var missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}

func retryPromptSuffix(missing []string, hint string) string {
	var b strings.Builder
	b.WriteString("# RETRY — EXPECTED FILE(S) MISSING\n\n")
	b.WriteString("The following file(s) were expected but were not created:\n")
	for _, m := range missing {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	b.WriteString("\n")
	b.WriteString(hint)
	b.WriteString("\n")
	return b.String()
}
