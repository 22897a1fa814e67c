package testutils

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

var multiSpaceRegex = regexp.MustCompile(" +")

// RunLegalflow executes a legalflow command with the given arguments string (split by spaces).
// Use RunLegalflowArgs when arguments contain spaces that should be preserved.
func RunLegalflow(ctx context.Context, env []string, binary, cmdArgs string, nolog bool) (stdout, stderr []byte, err error) {
	cmdArgs = strings.TrimSpace(cmdArgs)
	cmdArgs = multiSpaceRegex.ReplaceAllString(cmdArgs, " ")

	var args []string
	if cmdArgs != "" {
		args = strings.Split(cmdArgs, " ")
	}

	return RunLegalflowArgs(ctx, env, binary, args, nolog)
}

// RunLegalflowArgs executes a legalflow command with pre-split arguments.
func RunLegalflowArgs(ctx context.Context, env []string, binary string, args []string, nolog bool) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData
	cmd.Env = commandEnv(env, nolog)

	err = cmd.Run()

	return outData.Bytes(), errData.Bytes(), err
}

// StartLegalflow starts a long running legalflow command (e.g. dev-server), the
// returned func stops it.
func StartLegalflow(ctx context.Context, env []string, binary string, args []string) (stop func() error, err error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = commandEnv(env, true)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	return func() error {
		cancel()
		_ = cmd.Wait()
		return nil
	}, nil
}

// commandEnv returns os.Environ() with the custom env on top, the last key wins.
func commandEnv(env []string, nolog bool) []string {
	newEnv := append([]string{}, os.Environ()...)
	newEnv = append(newEnv, env...)
	if nolog {
		newEnv = append(newEnv, "LEGALFLOW_NO_LOG=true")
	}
	return newEnv
}
