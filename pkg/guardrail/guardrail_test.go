package guardrail

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bashArgs(command string) string {
	data, _ := json.Marshal(map[string]string{"command": command})
	return string(data)
}

func TestCheckNonBashAlwaysPasses(t *testing.T) {
	r := Check("file_read", `{"path":"/etc/passwd"}`, "/workspace")
	assert.False(t, r.TripwireTriggered)
}

func TestCheckBlockedPatterns(t *testing.T) {
	cases := []string{
		"rm -rf /",
		"rm -rf ~",
		"rm -rf $HOME",
		"git push --force",
		"git push -f",
	}
	for _, c := range cases {
		r := Check("bash", bashArgs(c), "/workspace")
		assert.Truef(t, r.TripwireTriggered, "expected %q to trip", c)
	}
}

func TestCheckTmpAllowed(t *testing.T) {
	r := Check("bash", bashArgs("rm -rf /tmp/foo"), "/workspace")
	assert.False(t, r.TripwireTriggered)
}

func TestCheckOutsideEtcDenied(t *testing.T) {
	r := Check("bash", bashArgs("rm -rf /etc"), "/workspace")
	assert.True(t, r.TripwireTriggered)
}

func TestCheckOutsideHomeDenied(t *testing.T) {
	r := Check("bash", bashArgs("echo /home/user/outside"), "/workspace")
	assert.True(t, r.TripwireTriggered)
}

func TestCheckWorkspaceUnderOutsidePathAllowed(t *testing.T) {
	r := Check("bash", bashArgs("echo /home/user/outside"), "/home/user/outside/project")
	assert.False(t, r.TripwireTriggered)
}

func TestCheckDevNullAllowed(t *testing.T) {
	r := Check("bash", bashArgs("cat /dev/null"), "/workspace")
	assert.False(t, r.TripwireTriggered)
}

func TestCheckWorkspacePathAllowed(t *testing.T) {
	r := Check("bash", bashArgs("cat /workspace/scraper/index.ts"), "/workspace")
	assert.False(t, r.TripwireTriggered)
}

func TestCheckOutputInfoTruncated(t *testing.T) {
	r := Check("bash", bashArgs("rm -rf /some/very/long/path/that/is/definitely/longer/than/eighty/characters/total/here"), "/workspace")
	assert.True(t, r.TripwireTriggered)
	assert.LessOrEqual(t, len(r.OutputInfo), 80)
}
