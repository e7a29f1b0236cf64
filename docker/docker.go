/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package docker

import (
	"archive/tar"
	"bytes"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	docker "github.com/fsouza/go-dockerclient"
	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("microfab.docker")

// Docker is a helper to manage container related actions within the
// orchestrator.
type Docker struct {
	Client *docker.Client
}

var once sync.Once
var singleInstance *Docker
var instanceError error

// GetInstance returns a Docker instance, or nil and an error in case of a
// failure.
func GetInstance() (*Docker, error) {
	once.Do(func() {
		dockerClient, err := docker.NewClientFromEnv()
		if err != nil {
			instanceError = errors.Wrapf(err, "failed to create new docker client instance")
		}

		singleInstance = &Docker{Client: dockerClient}
	})

	return singleInstance, instanceError
}

// Ping checks that a docker daemon is reachable.
func (d *Docker) Ping() error {
	return d.Client.Ping()
}

// CheckImagesExist returns an error if a given container image is not
// available. It receives a list of container image names that are checked.
func (d *Docker) CheckImagesExist(requiredImages ...string) error {
	for _, imageName := range requiredImages {
		images, err := d.Client.ListImages(docker.ListImagesOptions{
			Filters: map[string][]string{"reference": {imageName}},
		})
		if err != nil {
			return err
		}

		if len(images) != 1 {
			return errors.Errorf("missing required image: %s", imageName)
		}
	}
	return nil
}

// StartContainer creates and starts a container, returning its id.
func (d *Docker) StartContainer(name string, config *docker.Config, hostConfig *docker.HostConfig) (string, error) {
	container, err := d.Client.CreateContainer(docker.CreateContainerOptions{
		Name:       name,
		Config:     config,
		HostConfig: hostConfig,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed creating container '%s'", name)
	}

	if err := d.Client.StartContainer(container.ID, nil); err != nil {
		_ = d.Client.RemoveContainer(docker.RemoveContainerOptions{ID: container.ID, Force: true})
		return "", errors.Wrapf(err, "failed starting container '%s'", name)
	}
	logger.Infof("started container [%s] with id [%s]", name, container.ID)
	return container.ID, nil
}

// FollowLogs attaches to the container and streams its combined
// stdout/stderr output, including history, into the given writer. The
// returned CloseWaiter detaches the stream.
func (d *Docker) FollowLogs(id string, w io.Writer) (docker.CloseWaiter, error) {
	cw, err := d.Client.AttachToContainerNonBlocking(docker.AttachToContainerOptions{
		Container:    id,
		OutputStream: w,
		ErrorStream:  w,
		Logs:         true,
		Stream:       true,
		Stdout:       true,
		Stderr:       true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed attaching to container '%s'", id)
	}
	return cw, nil
}

// ExecOptions describes a command executed inside a running container.
type ExecOptions struct {
	User       string
	WorkingDir string
	Env        []string
	Cmd        []string
}

// Exec runs a command inside the container and waits for it, returning
// the exit code and the combined output.
func (d *Docker) Exec(id string, opts ExecOptions) (int, string, error) {
	exec, err := d.Client.CreateExec(docker.CreateExecOptions{
		Container:    id,
		User:         opts.User,
		WorkingDir:   opts.WorkingDir,
		Env:          opts.Env,
		Cmd:          opts.Cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed creating exec in container '%s'", id)
	}

	var output bytes.Buffer
	err = d.Client.StartExec(exec.ID, docker.StartExecOptions{
		OutputStream: &output,
		ErrorStream:  &output,
	})
	if err != nil {
		return 0, output.String(), errors.Wrapf(err, "failed running [%s] in container '%s'", strings.Join(opts.Cmd, " "), id)
	}

	inspect, err := d.Client.InspectExec(exec.ID)
	if err != nil {
		return 0, output.String(), errors.Wrapf(err, "failed inspecting exec in container '%s'", id)
	}
	return inspect.ExitCode, output.String(), nil
}

// Upload writes the given files, keyed by path relative to baseDir, into
// the container. Missing intermediate directories are created.
func (d *Docker) Upload(id, baseDir string, files map[string][]byte) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	now := time.Now()

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		content := files[path]
		if err := tw.WriteHeader(&tar.Header{
			Name:    path,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: now,
		}); err != nil {
			return errors.Wrapf(err, "failed writing tar header for '%s'", path)
		}
		if _, err := tw.Write(content); err != nil {
			return errors.Wrapf(err, "failed writing tar content for '%s'", path)
		}
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "failed closing tar stream")
	}

	err := d.Client.UploadToContainer(id, docker.UploadToContainerOptions{
		InputStream: &buf,
		Path:        baseDir,
	})
	if err != nil {
		return errors.Wrapf(err, "failed uploading to container '%s' at '%s'", id, baseDir)
	}
	return nil
}

// ReadFile copies a single file out of the container and returns its
// content.
func (d *Docker) ReadFile(id, path string) ([]byte, error) {
	var buf bytes.Buffer
	err := d.Client.DownloadFromContainer(id, docker.DownloadFromContainerOptions{
		Path:         path,
		OutputStream: &buf,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed downloading '%s' from container '%s'", path, id)
	}

	tr := tar.NewReader(&buf)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading tar stream for '%s'", path)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading '%s' from tar stream", hdr.Name)
		}
		return content, nil
	}
	return nil, errors.Errorf("no regular file found in archive for '%s'", path)
}

// RemoveContainer force-removes the container and its anonymous volumes.
func (d *Docker) RemoveContainer(id string) error {
	logger.Infof("cleanup container [%s]", id)
	err := d.Client.RemoveContainer(docker.RemoveContainerOptions{
		ID:            id,
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		return errors.Wrapf(err, "failed removing docker container='%s'", id)
	}
	return nil
}
