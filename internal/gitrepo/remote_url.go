package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	httpsProtocolPrefixConstant         = "https://"
	gitUserPrefixConstant               = "git@"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
	ownerRepositoryTemplateConstant     = "%s/%s"
)

// RemoteURL represents a structured git remote URL.
type RemoteURL struct {
	Host       string
	Owner      string
	Repository string
}

// OwnerRepository renders the owner/repository identifier for the remote.
func (remoteURL RemoteURL) OwnerRepository() string {
	return fmt.Sprintf(ownerRepositoryTemplateConstant, remoteURL.Owner, remoteURL.Repository)
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts a textual remote URL into a structured representation.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	if strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant) {
		return parseSSHRemote(remote, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant), pathSeparatorConstant)
	}
	if strings.HasPrefix(trimmedRemote, gitUserPrefixConstant) {
		return parseSSHRemote(remote, trimmedRemote, sshPathDelimiterConstant)
	}
	if strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant) {
		return parseHostPathRemote(remote, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	}

	return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
}

func parseSSHRemote(originalRemote string, remote string, hostDelimiter string) (RemoteURL, error) {
	userSplitIndex := strings.Index(remote, sshUserDelimiterConstant)
	if userSplitIndex < 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}

	hostAndPath := remote[userSplitIndex+len(sshUserDelimiterConstant):]
	hostSplitIndex := strings.Index(hostAndPath, hostDelimiter)
	if hostSplitIndex < 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}

	return buildRemoteURL(originalRemote, hostAndPath[:hostSplitIndex], hostAndPath[hostSplitIndex+len(hostDelimiter):])
}

func parseHostPathRemote(originalRemote string, remote string) (RemoteURL, error) {
	hostSplitIndex := strings.Index(remote, pathSeparatorConstant)
	if hostSplitIndex < 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}

	return buildRemoteURL(originalRemote, remote[:hostSplitIndex], remote[hostSplitIndex+len(pathSeparatorConstant):])
}

func buildRemoteURL(originalRemote string, host string, ownerAndRepository string) (RemoteURL, error) {
	trimmedPath := strings.TrimSuffix(strings.Trim(ownerAndRepository, pathSeparatorConstant), gitSuffixConstant)
	pathSegments := strings.Split(trimmedPath, pathSeparatorConstant)
	if len(pathSegments) != 2 || len(pathSegments[0]) == 0 || len(pathSegments[1]) == 0 || len(strings.TrimSpace(host)) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}

	return RemoteURL{
		Host:       host,
		Owner:      pathSegments[0],
		Repository: pathSegments[1],
	}, nil
}
