// Command optivorbis losslessly re-encodes the Huffman coding of an Ogg
// Vorbis I audio file, reducing file size without touching a single
// decoded sample.
//
// Usage:
//
//	optivorbis -in song.ogg -out song.opt.ogg
//	optivorbis -in song.ogg -out song.opt.ogg -config settings.yaml
//	optivorbis -in song.ogg -print-tags -debug-dump
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dhowden/tag"
	"github.com/kr/pretty"

	"github.com/optivorbis/optivorbis-go/container/ogg"
	"github.com/optivorbis/optivorbis-go/remux"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

func main() {
	inFile := flag.String("in", "", "Input Ogg Vorbis file to optimize")
	outFile := flag.String("out", "", "Output file for the optimized stream")
	configFile := flag.String("config", "", "Path to a YAML remux.Settings file")
	printTags := flag.Bool("print-tags", false, "Print the input file's Vorbis comment tags, then exit unless -out is given")
	debugDump := flag.Bool("debug-dump", false, "Pretty-print the first Vorbis stream's parsed setup header, then exit unless -out is given")
	randomizeSerials := flag.Bool("randomize-serials", true, "Assign fresh random Ogg serial numbers to output streams")
	firstSerialOffset := flag.Uint("first-serial-offset", 0, "Offset added to the first assigned output serial")
	ignoreStartOffset := flag.Bool("ignore-start-offset", false, "Discard the source's initial sample offset")
	errorOnNoVorbis := flag.Bool("error-on-no-vorbis", true, "Fail if the input contains no Vorbis logical bitstream")
	debug := flag.Bool("debug", false, "Enable the setup-header parser's strict debug checks")
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "optivorbis: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	if *printTags {
		if err := printFileTags(*inFile); err != nil {
			log.Fatalf("optivorbis: print-tags: %v", err)
		}
	}

	if *debugDump {
		if err := dumpFirstVorbisSetup(*inFile); err != nil {
			log.Fatalf("optivorbis: debug-dump: %v", err)
		}
	}

	if *printTags || *debugDump {
		if *outFile == "" {
			return
		}
	}

	settings, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("optivorbis: loading config: %v", err)
	}
	// Only flags given on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "randomize-serials":
			settings.RandomizeStreamSerials = *randomizeSerials
		case "first-serial-offset":
			settings.FirstStreamSerialOffset = uint32(*firstSerialOffset)
		case "ignore-start-offset":
			settings.IgnoreStartSampleOffset = *ignoreStartOffset
		case "error-on-no-vorbis":
			settings.ErrorOnNoVorbisStreams = *errorOnNoVorbis
		case "debug":
			settings.Debug = *debug
		}
	})

	if err := runRemux(*inFile, *outFile, settings); err != nil {
		log.Fatalf("optivorbis: %v", err)
	}
}

// runRemux opens in/out and drives remux.OggToOgg between them.
func runRemux(inPath, outPath string, settings remux.Settings) error {
	if outPath == "" {
		return fmt.Errorf("-out is required unless only -print-tags/-debug-dump was requested")
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if _, err := remux.New(settings).Remux(in, out); err != nil {
		return fmt.Errorf("remux: %w", err)
	}

	inStat, _ := in.Stat()
	outStat, _ := out.Stat()
	if inStat != nil && outStat != nil {
		fmt.Printf("optivorbis: %s (%d bytes) -> %s (%d bytes)\n", inPath, inStat.Size(), outPath, outStat.Size())
	}
	return nil
}

// printFileTags reads and prints the input file's metadata tags using
// the original (pre-optimization) bytes, per §4.11's "--print-tags"
// diagnostic.
func printFileTags(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("read tags: %w", err)
	}

	fmt.Printf("Format:  %s\n", m.Format())
	fmt.Printf("Title:   %s\n", m.Title())
	fmt.Printf("Artist:  %s\n", m.Artist())
	fmt.Printf("Album:   %s\n", m.Album())
	fmt.Printf("Genre:   %s\n", m.Genre())
	if track, total := m.Track(); track != 0 {
		fmt.Printf("Track:   %d/%d\n", track, total)
	}
	return nil
}

// dumpFirstVorbisSetup walks path looking for the first logical Vorbis
// bitstream's identification and setup headers, then pretty-prints the
// parsed vorbis.SetupData for inspection. This reads independently of
// remux.OggToOgg — a standalone diagnostic path, not a substitute for it.
func dumpFirstVorbisSetup(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := ogg.NewPacketReader(f)

	var ident vorbis.IdentificationData
	havePacket := 0
	for {
		pkt, err := reader.ReadPacket()
		if err != nil {
			return fmt.Errorf("no Vorbis setup header found: %w", err)
		}

		switch havePacket {
		case 0:
			data, identErr := vorbis.ParseIdentificationHeader(pkt.Data)
			if identErr != nil {
				continue // not a Vorbis stream's BOS packet; keep scanning
			}
			ident = data
			havePacket = 1
		case 1:
			havePacket = 2 // comment header, skip content
		case 2:
			setup, setupErr := vorbis.ParseSetupHeader(pkt.Data, int(ident.Channels), false)
			if setupErr != nil {
				return fmt.Errorf("parse setup header: %w", setupErr)
			}
			pretty.Println(setup)
			return nil
		}
	}
}
