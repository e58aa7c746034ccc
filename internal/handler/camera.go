package handler

import (
	"bytes"
	"context"
	"net"
	"strconv"

	"eppdetect/internal/config"
	"eppdetect/internal/logger"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

const udpPacketSize = 2048

// FrameHandler receives one complete camera frame.
type FrameHandler interface {
	HandleCameraFrame(frame []byte, camera string)
}

// frameAssembler rebuilds JPEG frames from UDP packets, one buffer per camera.
type frameAssembler struct {
	buffers map[string]*bytes.Buffer
}

func newFrameAssembler() *frameAssembler {
	return &frameAssembler{buffers: make(map[string]*bytes.Buffer)}
}

// add appends a packet and returns the completed frame, if any. A packet
// starting with the JPEG SOI marker restarts the camera's frame.
func (a *frameAssembler) add(camera string, data []byte) []byte {
	buf, ok := a.buffers[camera]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[camera] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	}
	buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil
	}
	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame
}

// UDPCameraHandler listens for UDP packets from cameras, reconstructs JPEG
// frames and forwards them until ctx is done.
func UDPCameraHandler(ctx context.Context, frames FrameHandler, logger *logger.Logger, config *config.Config) {
	port := strconv.Itoa(config.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		logger.Error("Failed to resolve UDP address: %v", err)
		return
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logger.Error("Failed to listen on UDP port %s: %v", port, err)
		return
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP Camera handler started on port %s", port)
	serveUDP(ctx, conn, frames, logger, config.CameraNames)
}

func serveUDP(ctx context.Context, conn net.PacketConn, frames FrameHandler, logger *logger.Logger, names map[string]string) {
	buffer := make([]byte, udpPacketSize)
	assembler := newFrameAssembler()

	for {
		n, remoteAddr, err := conn.ReadFrom(buffer)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("UDP Camera handler stopped")
				return
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		ip := remoteAddr.String()
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		cameraName, exists := names[ip]
		if !exists {
			cameraName = "unknown_" + ip
		}

		if frame := assembler.add(cameraName, buffer[:n]); frame != nil {
			frames.HandleCameraFrame(frame, cameraName)
		}
	}
}
